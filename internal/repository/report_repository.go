package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ligtascab/ligtascab/internal/model"
)

// ReportRepository persists misconduct reports filed by commuters.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new repository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// CreateReport inserts a new report. The ticket number comes from the
// service layer; status always starts as Pending.
func (r *ReportRepository) CreateReport(ctx context.Context, report *model.Report) (*model.Report, error) {
	report.ID = uuid.New().String()
	report.Status = model.ReportPending

	query := `
		INSERT INTO reports (id, commuter_id, ticket_number, violation, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		report.ID, report.CommuterID, report.TicketNumber,
		report.Violation, report.Comment, report.Status,
	).Scan(&report.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	return report, nil
}

// History returns the commuter's filed reports, newest first.
func (r *ReportRepository) History(ctx context.Context, commuterID string) ([]model.Report, error) {
	query := `
		SELECT id, commuter_id, ticket_number, violation, comment, status, created_at
		FROM reports
		WHERE commuter_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, commuterID)
	if err != nil {
		return nil, fmt.Errorf("report history: %w", err)
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		var rep model.Report
		if err := rows.Scan(
			&rep.ID, &rep.CommuterID, &rep.TicketNumber,
			&rep.Violation, &rep.Comment, &rep.Status, &rep.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}
