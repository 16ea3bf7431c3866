package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"echodl/internal/history"
	"echodl/internal/progress"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var course string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded lecture downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), course, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No downloads recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistory(entries, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&course, "course", "", "Only show this course")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show (0 for all)")
	return cmd
}

func renderHistory(entries []history.Entry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		size := ""
		if e.Bytes > 0 {
			size = progress.Bytes(e.Bytes)
		}
		detail := e.Path
		if e.Status == history.StatusFailure {
			detail = e.Reason
		}
		rows = append(rows, []string{
			humanize.RelTime(e.RecordedAt, now, "ago", "from now"),
			e.Course,
			e.LectureDate,
			e.Title,
			string(e.Status),
			size,
			detail,
		})
	}
	return renderTable(tableSpec{
		headers: []string{"Recorded", "Course", "Date", "Title", "Status", "Size", "Detail"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	})
}
