package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/faize-ai/efivm/internal/session"
	"github.com/spf13/cobra"
)

var pruneAll bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove launch records",
	Long: `Remove the records of VMs that are no longer running.

Records left behind as "running" by a process that was killed are only
removed with --all.`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().BoolVarP(&pruneAll, "all", "a", false, "remove all records (including running)")
}

func runPrune(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access session store: %w", err)
	}
	return prune(os.Stdout, store, pruneAll)
}

func prune(out io.Writer, store *session.Store, all bool) error {
	sessions, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	removedCount := 0
	for _, sess := range sessions {
		if !all && sess.Status == session.StatusRunning {
			continue
		}
		if err := store.Delete(sess.ID); err != nil {
			_, _ = fmt.Fprintf(out, "Warning: failed to delete session %s: %v\n", sess.ID, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "Removed session: %s\n", sess.ID)
		removedCount++
	}

	if removedCount == 0 {
		_, _ = fmt.Fprintln(out, "No sessions to remove.")
	} else {
		_, _ = fmt.Fprintf(out, "Removed %d session(s).\n", removedCount)
	}
	return nil
}
