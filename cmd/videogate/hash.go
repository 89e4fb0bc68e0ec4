package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sendrec/videogate/internal/pin"
)

// NewHashCmd prints the reference digest for a PIN so it can be set as
// PIN_HASH. Without an argument the PIN is read from stdin.
func NewHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [pin]",
		Short: "Print the reference digest for a PIN",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var candidate string
			if len(args) == 1 {
				candidate = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read pin: %w", err)
				}
				candidate = line
			}

			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				return fmt.Errorf("pin must not be empty")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), pin.DeriveHash(candidate))
			return err
		},
	}
}
