package postgres

import (
	"context"
	"database/sql"
	"strings"

	"petbook-access/internal/domain/pendingrecords"
	"petbook-access/internal/domain/records"
)

type PendingRecordsRepo struct {
	db *sql.DB
}

func NewPendingRecordsRepo(db *sql.DB) *PendingRecordsRepo {
	return &PendingRecordsRepo{db: db}
}

func (r *PendingRecordsRepo) Create(ctx context.Context, p pendingrecords.PendingHealthRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pending_health_records (
			id, pet_id, professional_id,
			title, record_type, record_date, notes,
			status,
			created_at, resolved_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		p.ID,
		p.PetID,
		p.ProfessionalID,
		p.Payload.Title,
		string(p.Payload.Type),
		p.Payload.Date,
		p.Payload.Notes,
		string(p.Status),
		p.CreatedAt,
		toNullTime(p.ResolvedAt),
	)
	return err
}

// Update solo toca status y resolved_at: el payload es inmutable.
func (r *PendingRecordsRepo) Update(ctx context.Context, p pendingrecords.PendingHealthRecord) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pending_health_records
		SET
			status = $2,
			resolved_at = $3
		WHERE id = $1
	`,
		p.ID,
		string(p.Status),
		toNullTime(p.ResolvedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PendingRecordsRepo) GetByID(ctx context.Context, id string) (pendingrecords.PendingHealthRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pendingrecords.PendingHealthRecord{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, pet_id, professional_id,
			title, record_type, record_date, notes,
			status,
			created_at, resolved_at
		FROM pending_health_records
		WHERE id = $1
	`, id)

	p, err := scanPendingRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return pendingrecords.PendingHealthRecord{}, ErrNotFound
		}
		return pendingrecords.PendingHealthRecord{}, err
	}
	return p, nil
}

func (r *PendingRecordsRepo) ListByPet(ctx context.Context, petID string) ([]pendingrecords.PendingHealthRecord, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	return r.list(ctx, `
		SELECT
			id, pet_id, professional_id,
			title, record_type, record_date, notes,
			status,
			created_at, resolved_at
		FROM pending_health_records
		WHERE pet_id = $1
		ORDER BY created_at ASC
	`, petID)
}

func (r *PendingRecordsRepo) ListByProfessional(ctx context.Context, professionalID string) ([]pendingrecords.PendingHealthRecord, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, nil
	}

	return r.list(ctx, `
		SELECT
			id, pet_id, professional_id,
			title, record_type, record_date, notes,
			status,
			created_at, resolved_at
		FROM pending_health_records
		WHERE professional_id = $1
		ORDER BY created_at ASC
	`, professionalID)
}

func (r *PendingRecordsRepo) list(ctx context.Context, query string, args ...any) ([]pendingrecords.PendingHealthRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pendingrecords.PendingHealthRecord, 0)
	for rows.Next() {
		p, err := scanPendingRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func scanPendingRecord(row rowScanner) (pendingrecords.PendingHealthRecord, error) {
	var p pendingrecords.PendingHealthRecord
	var recordType, status string
	var resolvedAt sql.NullTime

	if err := row.Scan(
		&p.ID,
		&p.PetID,
		&p.ProfessionalID,
		&p.Payload.Title,
		&recordType,
		&p.Payload.Date,
		&p.Payload.Notes,
		&status,
		&p.CreatedAt,
		&resolvedAt,
	); err != nil {
		return pendingrecords.PendingHealthRecord{}, err
	}

	p.Payload.Type = records.RecordType(recordType)
	p.Status = pendingrecords.Status(status)
	p.ResolvedAt = fromNullTime(resolvedAt)

	return p, nil
}
