package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// preview <sender>: produce a chat-list preview for an envelope.
func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <sender> [envelope]",
		Short: "Produce a chat-list preview for an envelope",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := envelopeArg(cmd, args)
			if err != nil {
				return err
			}
			fmt.Println(client.Preview(cmd.Context(), raw, args[0]))
			return nil
		},
	}
}
