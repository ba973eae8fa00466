package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	parlachat "github.com/parlachat/client-go"
)

var (
	home       string
	userID     string
	passphrase string
	verbose    bool

	directoryURL string
	blobURL      string
	apiKey       string

	client *parlachat.Client
)

func Execute() error {
	root := &cobra.Command{
		Use:           "parlachat",
		Short:         "End-to-end encrypted messaging envelopes",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A .env next to the binary is honored but never required.
			_ = godotenv.Load()

			if userID == "" {
				userID = os.Getenv("PARLACHAT_USER")
			}
			if userID == "" {
				return fmt.Errorf("user id required (--user or PARLACHAT_USER)")
			}
			if passphrase == "" {
				passphrase = os.Getenv("PARLACHAT_PASSPHRASE")
			}
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p or PARLACHAT_PASSPHRASE)")
			}
			if directoryURL == "" {
				directoryURL = os.Getenv("PARLACHAT_DIRECTORY_URL")
			}
			if blobURL == "" {
				blobURL = os.Getenv("PARLACHAT_BLOB_URL")
			}
			if apiKey == "" {
				apiKey = os.Getenv("PARLACHAT_API_KEY")
			}

			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".parlachat")
			}

			keys, err := parlachat.NewFileKeyStore(home, passphrase)
			if err != nil {
				return err
			}

			log := logrus.New()
			log.SetOutput(os.Stderr)
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			} else {
				log.SetLevel(logrus.WarnLevel)
			}

			opts := []parlachat.Option{
				parlachat.WithKeyStore(keys),
				parlachat.WithLogger(log),
			}
			if directoryURL != "" {
				dir, err := parlachat.NewHTTPDirectory(directoryURL, apiKey)
				if err != nil {
					return err
				}
				opts = append(opts, parlachat.WithDirectory(dir))
			}
			if blobURL != "" {
				blobs, err := parlachat.NewHTTPBlobStore(blobURL, apiKey)
				if err != nil {
					return err
				}
				opts = append(opts, parlachat.WithBlobStore(blobs))
			}
			if auditKey := os.Getenv("PARLACHAT_AUDIT_KEY"); auditKey != "" {
				opts = append(opts, parlachat.WithAuditKey(auditKey))
			}

			client, err = parlachat.New(userID, opts...)
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "key store dir (default ~/.parlachat)")
	root.PersistentFlags().StringVar(&userID, "user", "", "local user id")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase sealing the key store")
	root.PersistentFlags().StringVar(&directoryURL, "directory", "", "key directory base URL")
	root.PersistentFlags().StringVar(&blobURL, "blobs", "", "blob store base URL")
	root.PersistentFlags().StringVar(&apiKey, "api-key", "", "bearer token for directory and blob store")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(initCmd(), registerCmd(), sendCmd(), readCmd(), previewCmd())
	return root.Execute()
}
