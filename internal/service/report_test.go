package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligtascab/ligtascab/internal/model"
)

type fakeReportStore struct {
	created []*model.Report
}

func (f *fakeReportStore) CreateReport(_ context.Context, report *model.Report) (*model.Report, error) {
	report.ID = "rep-1"
	report.Status = model.ReportPending
	report.CreatedAt = time.Now()
	f.created = append(f.created, report)
	return report, nil
}

func (f *fakeReportStore) History(_ context.Context, commuterID string) ([]model.Report, error) {
	var out []model.Report
	for i := len(f.created) - 1; i >= 0; i-- {
		if f.created[i].CommuterID == commuterID {
			out = append(out, *f.created[i])
		}
	}
	return out, nil
}

func TestReportSubmit(t *testing.T) {
	store := &fakeReportStore{}
	svc := NewReportService(store, NewTicketGenerator())

	report, err := svc.Submit(context.Background(), "commuter-1", "reckless_driving", "ran a red light on Panganiban")
	require.NoError(t, err)

	assert.Regexp(t, `^TRC-\d{6}-[A-Z0-9]{3}$`, report.TicketNumber)
	assert.Equal(t, model.ReportPending, report.Status)
	assert.Equal(t, "reckless_driving", report.Violation)
	assert.Len(t, store.created, 1)
}

func TestReportSubmit_UnknownViolation(t *testing.T) {
	store := &fakeReportStore{}
	svc := NewReportService(store, NewTicketGenerator())

	_, err := svc.Submit(context.Background(), "commuter-1", "jaywalking", "not a category")
	assert.ErrorIs(t, err, ErrUnknownViolation)
	assert.Empty(t, store.created)
}

func TestReportSubmit_EmptyComment(t *testing.T) {
	store := &fakeReportStore{}
	svc := NewReportService(store, NewTicketGenerator())

	_, err := svc.Submit(context.Background(), "commuter-1", "overcharging", "   ")
	assert.ErrorIs(t, err, ErrEmptyComment)
	assert.Empty(t, store.created)
}

func TestReportHistory(t *testing.T) {
	store := &fakeReportStore{}
	svc := NewReportService(store, NewTicketGenerator())

	_, err := svc.Submit(context.Background(), "commuter-1", "overcharging", "charged 30 for a 15 ride")
	require.NoError(t, err)

	history, err := svc.History(context.Background(), "commuter-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "overcharging", history[0].Violation)
}
