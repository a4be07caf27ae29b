package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/ligtascab/ligtascab/internal/model"
)

// ─── Report Errors ──────────────────────────────────────────

var (
	ErrUnknownViolation = errors.New("violation category is not in the fixed list")
	ErrEmptyComment     = errors.New("report comment must not be empty")
)

// ReportStore persists misconduct reports.
type ReportStore interface {
	CreateReport(ctx context.Context, report *model.Report) (*model.Report, error)
	History(ctx context.Context, commuterID string) ([]model.Report, error)
}

// ─── ReportService ──────────────────────────────────────────

// ReportService files misconduct reports. The ticket number is generated at
// the moment of submission, never when the report form opens.
type ReportService struct {
	store   ReportStore
	tickets *TicketGenerator
}

// NewReportService creates a report service.
func NewReportService(store ReportStore, tickets *TicketGenerator) *ReportService {
	return &ReportService{store: store, tickets: tickets}
}

// Submit validates and files a report, returning the persisted record with
// its ticket number. A report needs both a category from the fixed list and
// non-empty comment text.
func (s *ReportService) Submit(ctx context.Context, commuterID, violation, comment string) (*model.Report, error) {
	if !model.ValidViolation(violation) {
		return nil, ErrUnknownViolation
	}
	if strings.TrimSpace(comment) == "" {
		return nil, ErrEmptyComment
	}

	report := &model.Report{
		CommuterID:   commuterID,
		TicketNumber: s.tickets.Next(),
		Violation:    violation,
		Comment:      comment,
	}

	created, err := s.store.CreateReport(ctx, report)
	if err != nil {
		return nil, err
	}

	log.Printf("[report] ✓ Filed %s (%s) for commuter %s", created.TicketNumber, violation, commuterID)
	return created, nil
}

// History returns the commuter's filed reports, newest first.
func (s *ReportService) History(ctx context.Context, commuterID string) ([]model.Report, error) {
	return s.store.History(ctx, commuterID)
}
