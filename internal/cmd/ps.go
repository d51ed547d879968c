package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/faize-ai/efivm/internal/session"
	"github.com/spf13/cobra"
)

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List recorded VM launches",
	Long:  `List the VMs launched by efivm with their status and details.`,
	Args:  cobra.NoArgs,
	RunE:  runPs,
}

func init() {
	rootCmd.AddCommand(psCmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access session store: %w", err)
	}

	sessions, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	printSessions(os.Stdout, sessions)
	return nil
}

func printSessions(out io.Writer, sessions []*session.Session) {
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(out, "No sessions.")
		return
	}

	// Create tabwriter for aligned output
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tMEMORY\tCORES\tDISKS\tSTARTED\tBOOT IMAGE")
	_, _ = fmt.Fprintln(w, "----\t------\t------\t-----\t-----\t-------\t----------")

	for _, sess := range sessions {
		started := sess.StartedAt.Format("2006-01-02 15:04:05")
		_, _ = fmt.Fprintf(w, "%s\t%s\t%dMB\t%d\t%d\t%s\t%s\n",
			sess.ID,
			sess.Status,
			sess.MemoryMB,
			sess.Cores,
			len(sess.Disks),
			started,
			sess.BootImage,
		)
	}

	_ = w.Flush()
}
