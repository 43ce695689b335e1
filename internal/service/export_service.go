package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meetsync/meetsync-api/internal/models"
	appErrors "github.com/meetsync/meetsync-api/pkg/errors"
	"github.com/meetsync/meetsync-api/pkg/export"
)

type ownerMeetingLister interface {
	ListMine(ctx context.Context, ownerID string) ([]models.Meeting, error)
}

// ExportFormat names the supported export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered export ready to be served as a download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders an owner's meetings into downloadable files.
type ExportService struct {
	meetings ownerMeetingLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

func NewExportService(meetings ownerMeetingLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		meetings: meetings,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// ExportMeetings renders every meeting across the owner's calendars in
// the requested format.
func (s *ExportService) ExportMeetings(ctx context.Context, ownerID string, format ExportFormat) (*ExportFile, error) {
	meetings, err := s.meetings.ListMine(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	dataset := meetingsDataset(meetings)
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("meetings-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, "Meetings")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("meetings-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func meetingsDataset(meetings []models.Meeting) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Title", "Booker", "Email", "Start", "End", "Status", "Meet Link"},
		Rows:    make([][]string, 0, len(meetings)),
	}
	for _, m := range meetings {
		link := ""
		if m.GoogleMeetLink != nil {
			link = *m.GoogleMeetLink
		}
		dataset.Rows = append(dataset.Rows, []string{
			m.Title,
			m.BookerName,
			m.BookerEmail,
			m.StartTime.UTC().Format(time.RFC3339),
			m.EndTime.UTC().Format(time.RFC3339),
			string(m.Status),
			link,
		})
	}
	return dataset
}
