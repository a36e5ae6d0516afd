package kinds

import (
	"fmt"
	"text/tabwriter"

	"github.com/cbosdo/libvirt/event"
	"github.com/spf13/cobra"
)

// NewCommand creates the kinds subcommand, listing the event ids the daemon
// knows about.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the known event kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAMESPACE\tKIND\tNAME")
			for _, id := range event.KnownIDs() {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", int(id), id.Namespace(), id.Kind(), id)
			}
			return w.Flush()
		},
	}
}
