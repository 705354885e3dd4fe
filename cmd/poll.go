// Package cmd holds the cobra subcommands added to the humacli root.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ykarpov/procnode/internal/childpoll"
)

// CreatePollCmd creates the poll command: a one-shot, non-destructive
// check for a waitable child.
func CreatePollCmd() *cobra.Command {
	var asJSON bool
	var verify bool

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Poll for a waitable child process",
		Long: `Checks once whether any child of this process is waitable, without ` +
			`consuming its exit status. Prints -1 when there are no children, 0 when ` +
			`children exist but none is waitable, and the pid otherwise.`,
		Run: func(_ *cobra.Command, _ []string) {
			r := childpoll.Poll()

			if asJSON {
				out := map[string]any{
					"kind":     r.Kind.String(),
					"sentinel": r.Sentinel(),
				}
				if r.Kind == childpoll.KindPending {
					out["pid"] = r.Pid
					if verify {
						if alive, err := childpoll.Verify(r.Pid); err == nil {
							out["alive"] = alive
						}
					}
				}
				enc := json.NewEncoder(os.Stdout)
				if err := enc.Encode(out); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(1)
				}
				return
			}

			fmt.Println(r.Sentinel())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&verify, "verify", false, "Cross-check a pending pid against the process table (JSON output only)")
	return cmd
}
