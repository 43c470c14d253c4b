// Package report prints monthly donation reports.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"giveback/pkg/donations"
	"giveback/pkg/forms"
)

// Run prints username's report for month (YYYY-MM) to w and, when list is
// set, one line per matching donation.
func Run(ctx context.Context, w io.Writer, svc *donations.Service, username, month string, list bool) error {
	rep, err := svc.MonthlyReport(ctx, username, month, list)
	if err != nil {
		return err
	}
	return Write(w, rep)
}

// Write renders rep in the pipe separated layout the admin CLI prints.
func Write(w io.Writer, rep *donations.Report) error {
	if _, err := fmt.Fprintf(w, "Report for user=%s month=%s (UTC):\n", rep.Username, rep.Month); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  donations=%d total_amount=%s\n", rep.Count, forms.FormatAmount(rep.Total)); err != nil {
		return err
	}
	for _, d := range rep.Donations {
		_, err := fmt.Fprintf(w, "%d|%s|%s|%s|%s\n",
			d.ID, d.Project.Title, forms.FormatAmount(d.Amount), d.Date.UTC().Format(time.RFC3339), d.Message)
		if err != nil {
			return err
		}
	}
	return nil
}
