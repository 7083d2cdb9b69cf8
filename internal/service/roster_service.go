package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/export"
)

type rosterLoader interface {
	CourseWithStudents(ctx context.Context, courseID int64) (*models.CourseWithStudents, error)
}

// RosterService renders a course roster for download.
type RosterService struct {
	courses rosterLoader
	logger  *zap.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(courses rosterLoader, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{courses: courses, logger: logger}
}

// Render exports the enrolled students of courseID in the requested format. An empty format means CSV.
func (s *RosterService) Render(ctx context.Context, courseID int64, format dto.RosterFormat) (*dto.RosterFile, error) {
	if format == "" {
		format = dto.RosterFormatCSV
	}
	format = dto.RosterFormat(strings.ToLower(string(format)))
	if format != dto.RosterFormatCSV && format != dto.RosterFormatPDF {
		return nil, appErrors.WithDetail(appErrors.ErrValidation, "unsupported roster format", "format must be csv or pdf")
	}

	course, err := s.courses.CourseWithStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}
	table := rosterTable(course)

	var (
		body        []byte
		contentType string
	)
	switch format {
	case dto.RosterFormatPDF:
		body, err = export.RenderPDF(table)
		contentType = export.PDFContentType
	default:
		body, err = export.RenderCSV(table)
		contentType = export.CSVContentType
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}

	s.logger.Debug("roster rendered", zap.Int64("course_id", courseID), zap.String("format", string(format)), zap.Int("students", len(course.Students)))
	return &dto.RosterFile{
		Filename:    fmt.Sprintf("roster-%s.%s", slug(course.Code), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func rosterTable(course *models.CourseWithStudents) export.Table {
	rows := make([][]string, len(course.Students))
	for i, st := range course.Students {
		rows[i] = []string{
			strconv.FormatInt(st.ID, 10),
			st.Name,
			st.Email,
			st.Birthdate.String(),
			st.EnrolledAt.UTC().Format("2006-01-02 15:04"),
		}
	}
	return export.Table{
		Title:    fmt.Sprintf("%s %s", course.Code, course.Name),
		Subtitle: fmt.Sprintf("%d enrolled, %g units", len(course.Students), course.Units),
		Headers:  []string{"ID", "Name", "Email", "Birthdate", "Enrolled At"},
		Rows:     rows,
	}
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "course"
	}
	return b.String()
}
