package agreement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record mirrors the agreements table columns touched by the services.
type Record struct {
	ID              string
	Name            string
	CounterpartyID  string
	StartDate       time.Time
	Status          Status
	StatusUpdatedAt *time.Time
	CreatedByUserID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateParams struct {
	Name           string
	CounterpartyID string
	StartDate      time.Time
}

type ListFilters struct {
	CreatorUserID string
	Status        Status
	Page          int
	PageSize      int
}

// CRUDService persists agreements. Input validation is delegated to the
// domain entity so the factory stays the only validated construction path.
type CRUDService struct {
	pool *pgxpool.Pool
}

func NewCRUDService(pool *pgxpool.Pool) *CRUDService {
	return &CRUDService{pool: pool}
}

func (s *CRUDService) Create(ctx context.Context, userID string, params CreateParams) (Record, error) {
	cpID, err := ParseCounterpartyID(params.CounterpartyID)
	if err != nil {
		return Record{}, fmt.Errorf("%w: counterparty id malformed", ErrValidation)
	}

	entity, err := New(params.Name, cpID, params.StartDate)
	if err != nil {
		return Record{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("agreement: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var verified bool
	err = tx.QueryRow(ctx, `SELECT verified FROM counterparties WHERE id=$1`, entity.CounterpartyID().String()).Scan(&verified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, fmt.Errorf("%w: unknown counterparty", ErrValidation)
		}
		return Record{}, fmt.Errorf("agreement: ensure counterparty: %w", err)
	}

	var rec Record
	insertSQL := `
        INSERT INTO agreements (id, name, counterparty_id, start_date, status, created_by_user_id)
        VALUES ($1,$2,$3,$4,'draft',$5)
        RETURNING id, name, counterparty_id, start_date, status, status_updated_at, created_by_user_id, created_at, updated_at
    `
	if err := tx.QueryRow(ctx, insertSQL,
		entity.ID().String(),
		entity.Name(),
		entity.CounterpartyID().String(),
		entity.StartDate(),
		userID,
	).Scan(&rec.ID, &rec.Name, &rec.CounterpartyID, &rec.StartDate, &rec.Status, &rec.StatusUpdatedAt, &rec.CreatedByUserID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, fmt.Errorf("agreement: insert: %w", err)
	}

	timelinePayload := map[string]any{
		"name":            rec.Name,
		"counterparty_id": rec.CounterpartyID,
		"start_date":      rec.StartDate.Format("2006-01-02"),
	}
	if err := insertTimelineEvent(ctx, tx, rec.ID, eventAgreementCreated, userID, timelinePayload); err != nil {
		return Record{}, err
	}

	outboxPayload := map[string]any{
		"agreement_id":    rec.ID,
		"counterparty_id": rec.CounterpartyID,
	}
	if err := enqueueOutbox(ctx, tx, OutboxTopicAgreementCreated, outboxPayload); err != nil {
		return Record{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Record{}, fmt.Errorf("agreement: commit: %w", err)
	}

	return rec, nil
}

func (s *CRUDService) Get(ctx context.Context, userID, agreementID string) (Record, error) {
	const query = `
        SELECT id, name, counterparty_id, start_date, status, status_updated_at, created_by_user_id, created_at, updated_at
        FROM agreements
        WHERE id = $1 AND created_by_user_id = $2
    `

	var rec Record
	err := s.pool.QueryRow(ctx, query, agreementID, userID).Scan(
		&rec.ID, &rec.Name, &rec.CounterpartyID, &rec.StartDate, &rec.Status,
		&rec.StatusUpdatedAt, &rec.CreatedByUserID, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrAgreementNotFound
		}
		return Record{}, fmt.Errorf("agreement: get: %w", err)
	}

	return rec, nil
}

func (s *CRUDService) List(ctx context.Context, filters ListFilters) ([]Record, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	args := []any{filters.CreatorUserID, filters.PageSize, (filters.Page - 1) * filters.PageSize}
	statusFilter := ""
	if filters.Status != "" {
		statusFilter = " AND status = $4::agreement_status"
		args = append(args, string(filters.Status))
	}

	query := `
        SELECT id, name, counterparty_id, start_date, status, status_updated_at, created_by_user_id, created_at, updated_at
        FROM agreements
        WHERE created_by_user_id = $1` + statusFilter + `
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("agreement: list: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.CounterpartyID, &rec.StartDate, &rec.Status,
			&rec.StatusUpdatedAt, &rec.CreatedByUserID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("agreement: iterate: %w", err)
	}

	countArgs := []any{filters.CreatorUserID}
	countQuery := `SELECT COUNT(*) FROM agreements WHERE created_by_user_id=$1`
	if filters.Status != "" {
		countQuery += ` AND status=$2::agreement_status`
		countArgs = append(countArgs, string(filters.Status))
	}
	var total int
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
