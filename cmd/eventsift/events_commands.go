package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"eventsift/internal/events"
	"eventsift/internal/store"
	"eventsift/internal/textutil"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect stored events",
	}
	eventsCmd.AddCommand(newEventsListCommand(ctx))
	return eventsCmd
}

type eventView struct {
	ID         int64    `json:"id"`
	SourceID   string   `json:"source_id,omitempty"`
	Title      string   `json:"title"`
	Date       string   `json:"date,omitempty"`
	Location   string   `json:"location,omitempty"`
	Category   string   `json:"category,omitempty"`
	IsFree     bool     `json:"is_free"`
	SourceName string   `json:"source_name,omitempty"`
	SourceURL  string   `json:"source_url,omitempty"`
	Status     string   `json:"status"`
	Confidence *float64 `json:"confidence_score"`
	IsValid    bool     `json:"is_valid"`
	CreatedAt  string   `json:"created_at,omitempty"`
}

func newEventView(event events.Event) eventView {
	isValid, confidence := event.Status.Columns()
	view := eventView{
		ID:         event.ID,
		SourceID:   event.SourceID,
		Title:      event.Title,
		Date:       event.Date,
		Location:   event.Location,
		Category:   string(event.Category),
		IsFree:     event.IsFree,
		SourceName: event.SourceName,
		SourceURL:  event.SourceURL,
		Status:     event.Status.String(),
		Confidence: confidence,
		IsValid:    isValid,
	}
	if !event.CreatedAt.IsZero() {
		view.CreatedAt = event.CreatedAt.UTC().Format(time.RFC3339)
	}
	return view
}

func newEventsListCommand(ctx *commandContext) *cobra.Command {
	var validOnly bool
	var asJSON bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.List(cmd.Context(), store.ListOptions{ValidOnly: validOnly, Limit: limit})
			if err != nil {
				return err
			}
			views := make([]eventView, 0, len(list))
			for _, event := range list {
				views = append(views, newEventView(event))
			}
			if asJSON {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No events stored")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					strconv.FormatInt(v.ID, 10),
					textutil.Truncate(v.Title, 48),
					v.Date,
					v.Category,
					yesNo(v.IsFree),
					v.SourceName,
					v.Status,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"ID", "Title", "Date", "Category", "Free", "Source", "Status"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&validOnly, "valid", false, "Only list events accepted by the classifier")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of events to list (0 for all)")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show event counts by verification status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			summary, err := st.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]int{
					"total":      summary.Total,
					"valid":      summary.Valid,
					"rejected":   summary.Rejected,
					"unverified": summary.Unverified,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Status", "Events"},
				[][]string{
					{"total", strconv.Itoa(summary.Total)},
					{"valid", strconv.Itoa(summary.Valid)},
					{"rejected", strconv.Itoa(summary.Rejected)},
					{"unverified", strconv.Itoa(summary.Unverified)},
				},
				[]columnAlignment{alignLeft, alignRight},
			))
			fmt.Fprintf(out, "Store: %s (%s)\n", st.Location(), st.Driver())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
