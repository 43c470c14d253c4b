package report

import (
	"bytes"
	"testing"
	"time"

	"giveback/models"
	"giveback/pkg/donations"

	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	date := time.Date(2025, 8, 14, 9, 30, 0, 0, time.UTC)
	rep := &donations.Report{
		Username: "alice",
		Month:    "2025-08",
		Count:    2,
		Total:    1550,
		Donations: []models.Donation{
			{ID: 3, Project: models.Project{Title: "Wells"}, Amount: 1500, Date: date, Message: "go"},
			{ID: 7, Project: models.Project{Title: "Books"}, Amount: 50, Date: date},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rep))
	require.Equal(t, "Report for user=alice month=2025-08 (UTC):\n"+
		"  donations=2 total_amount=15.50\n"+
		"3|Wells|15.00|2025-08-14T09:30:00Z|go\n"+
		"7|Books|0.50|2025-08-14T09:30:00Z|\n", buf.String())
}
