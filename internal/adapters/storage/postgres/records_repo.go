package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"petbook-access/internal/domain/records"
)

type HealthRecordsRepo struct {
	db *sql.DB
}

func NewHealthRecordsRepo(db *sql.DB) *HealthRecordsRepo {
	return &HealthRecordsRepo{db: db}
}

func (r *HealthRecordsRepo) Create(ctx context.Context, rec records.HealthRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO health_records (
			id, pet_id,
			record_type, title, notes,
			actor_type, actor_id, actor_name,
			source,
			occurred_at, recorded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		rec.ID,
		rec.PetID,
		string(rec.Type),
		rec.Title,
		rec.Notes,
		string(rec.Actor.Type),
		rec.Actor.ID,
		rec.Actor.Name,
		string(rec.Source),
		rec.OccurredAt,
		rec.RecordedAt,
	)
	return err
}

func (r *HealthRecordsRepo) GetByID(ctx context.Context, id string) (records.HealthRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return records.HealthRecord{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, pet_id,
			record_type, title, notes,
			actor_type, actor_id, actor_name,
			source,
			occurred_at, recorded_at
		FROM health_records
		WHERE id = $1
	`, id)

	rec, err := scanHealthRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return records.HealthRecord{}, ErrNotFound
		}
		return records.HealthRecord{}, err
	}
	return rec, nil
}

func (r *HealthRecordsRepo) ListByPet(ctx context.Context, petID string, filter records.ListFilter) ([]records.HealthRecord, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	// query incremental según filtros presentes
	query := `
		SELECT
			id, pet_id,
			record_type, title, notes,
			actor_type, actor_id, actor_name,
			source,
			occurred_at, recorded_at
		FROM health_records
		WHERE pet_id = $1
	`
	args := []any{petID}

	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		args = append(args, types)
		query += fmt.Sprintf(" AND record_type = ANY($%d)", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND occurred_at <= $%d", len(args))
	}

	query += " ORDER BY occurred_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.HealthRecord, 0)
	for rows.Next() {
		rec, err := scanHealthRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

func scanHealthRecord(row rowScanner) (records.HealthRecord, error) {
	var rec records.HealthRecord
	var recordType, actorType, source string

	if err := row.Scan(
		&rec.ID,
		&rec.PetID,
		&recordType,
		&rec.Title,
		&rec.Notes,
		&actorType,
		&rec.Actor.ID,
		&rec.Actor.Name,
		&source,
		&rec.OccurredAt,
		&rec.RecordedAt,
	); err != nil {
		return records.HealthRecord{}, err
	}

	rec.Type = records.RecordType(recordType)
	rec.Actor.Type = records.ActorType(actorType)
	rec.Source = records.Source(source)

	return rec, nil
}
