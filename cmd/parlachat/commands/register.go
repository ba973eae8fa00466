package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Publish the local public key to the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if directoryURL == "" {
				return fmt.Errorf("no directory configured. use --directory")
			}
			if err := client.Register(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Public key published")
			return nil
		},
	}
}
