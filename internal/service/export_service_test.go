package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsync/meetsync-api/internal/models"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
)

type stubOwnerMeetings struct {
	meetings []models.Meeting
	err      error
}

func (s *stubOwnerMeetings) ListMine(ctx context.Context, ownerID string) ([]models.Meeting, error) {
	return s.meetings, s.err
}

func exportFixtureMeetings() []models.Meeting {
	start := time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC)
	link := "https://meet.google.com/abc-defg-hij"
	return []models.Meeting{
		{ID: "m-1", CalendarID: "cal-1", BookerName: "Ada", BookerEmail: "ada@example.com", Title: "Intro call", StartTime: start, EndTime: start.Add(time.Hour), Status: models.MeetingStatusConfirmed, GoogleMeetLink: &link},
		{ID: "m-2", CalendarID: "cal-1", BookerName: "Grace", BookerEmail: "grace@example.com", Title: "Review", StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour), Status: models.MeetingStatusPending},
	}
}

func TestExportMeetingsCSV(t *testing.T) {
	svc := NewExportService(&stubOwnerMeetings{meetings: exportFixtureMeetings()}, nil)

	file, err := svc.ExportMeetings(context.Background(), "owner-1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "meetings-"))
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	body := string(file.Content)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Title")
	assert.Contains(t, body, "ada@example.com")
	assert.Contains(t, body, "2024-12-02T09:00:00Z")
	assert.Contains(t, body, "https://meet.google.com/abc-defg-hij")
}

func TestExportMeetingsPDF(t *testing.T) {
	svc := NewExportService(&stubOwnerMeetings{meetings: exportFixtureMeetings()}, nil)

	file, err := svc.ExportMeetings(context.Background(), "owner-1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
	assert.True(t, len(file.Content) > 0)
	assert.Equal(t, "%PDF", string(file.Content[:4]))
}

func TestExportMeetingsUnknownFormat(t *testing.T) {
	svc := NewExportService(&stubOwnerMeetings{}, nil)

	_, err := svc.ExportMeetings(context.Background(), "owner-1", ExportFormat("xml"))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestExportMeetingsEmptyDashboard(t *testing.T) {
	svc := NewExportService(&stubOwnerMeetings{}, nil)

	file, err := svc.ExportMeetings(context.Background(), "owner-1", ExportFormatCSV)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(file.Content)), "\n")
	assert.Len(t, lines, 1)
}
