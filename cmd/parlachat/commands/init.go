package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the local key pair if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := client.PublicKey(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Key pair ready for %s.\nPublic key: %s\n", client.UserID(), pub)
			return nil
		},
	}
}
