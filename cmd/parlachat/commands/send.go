package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	parlachat "github.com/parlachat/client-go"
)

// send <recipient> <message>: seal a message and print the envelope JSON.
// A comma-separated recipient list produces a group envelope.
func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <recipient[,recipient...]> <message>",
		Short: "Seal a text message into an envelope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if directoryURL == "" {
				return fmt.Errorf("no directory configured. use --directory")
			}

			recipients := strings.Split(args[0], ",")
			message := args[1]

			var env *parlachat.Envelope
			var err error

			if len(recipients) == 1 {
				env, err = client.SendText(cmd.Context(), message, recipients[0])
				if err != nil {
					return err
				}
			} else {
				var fanOut *parlachat.FanOut
				env, fanOut, err = client.SendGroupText(cmd.Context(), message, recipients)
				if err != nil {
					return err
				}
				for id, ferr := range fanOut.Failed {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s was not wrapped: %v\n", id, ferr)
				}
			}

			raw, err := env.Marshal()
			if err != nil {
				return err
			}
			fmt.Println(raw)
			return nil
		},
	}
	return cmd
}
