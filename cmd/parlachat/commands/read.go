package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// read <sender>: resolve an envelope (argument or stdin) to renderable text.
func readCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <sender> [envelope]",
		Short: "Resolve an envelope back to renderable text",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := envelopeArg(cmd, args)
			if err != nil {
				return err
			}

			res := client.Read(cmd.Context(), raw, args[0])
			if verbose && res.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "state=%s err=%v\n", res.State, res.Err)
			}
			fmt.Println(res.Text)
			return nil
		},
	}
	return cmd
}

// envelopeArg returns the raw content value: the second positional argument
// when present, otherwise everything on stdin.
func envelopeArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 1 {
		return args[1], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}
