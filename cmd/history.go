package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/datendrehschei/fsen-admin/internal/journal"
)

func newHistoryCmd() *cobra.Command {
	var (
		journalFile string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List mails recorded in a send journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.Open(journalFile)
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeHistory(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringVar(&journalFile, "journal", "", "SQLite journal written by fsen-admin send --journal")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show, newest first (0: all)")
	_ = cmd.MarkFlagRequired("journal")

	return cmd
}

func writeHistory(out io.Writer, entries []journal.Entry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SENT\tMODE\tFS_ID\tSUBJECT\tRECIPIENTS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.SentAt.Local().Format(time.DateTime), e.Mode, e.GroupID, e.Subject, e.Recipients)
	}
	return tw.Flush()
}
