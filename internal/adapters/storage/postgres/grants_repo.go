package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"petbook-access/internal/domain/grants"
)

type GrantsRepo struct {
	db *sql.DB
}

func NewGrantsRepo(db *sql.DB) *GrantsRepo {
	return &GrantsRepo{db: db}
}

func (r *GrantsRepo) Create(ctx context.Context, g grants.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grants (
			id, pet_id, professional_id,
			kind, status,
			granted_at, revoked_at, expires_at,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		g.ID,
		g.PetID,
		g.ProfessionalID,
		string(g.Kind),
		string(g.Status),
		toNullTime(g.GrantedAt),
		toNullTime(g.RevokedAt),
		toNullTime(g.ExpiresAt),
		g.CreatedAt,
		g.UpdatedAt,
	)
	return err
}

func (r *GrantsRepo) Update(ctx context.Context, g grants.Grant) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE grants
		SET
			status = $2,
			granted_at = $3,
			revoked_at = $4,
			expires_at = $5,
			updated_at = $6
		WHERE id = $1
	`,
		g.ID,
		string(g.Status),
		toNullTime(g.GrantedAt),
		toNullTime(g.RevokedAt),
		toNullTime(g.ExpiresAt),
		g.UpdatedAt,
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

func (r *GrantsRepo) GetByID(ctx context.Context, id string) (grants.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return grants.Grant{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, pet_id, professional_id,
			kind, status,
			granted_at, revoked_at, expires_at,
			created_at, updated_at
		FROM grants
		WHERE id = $1
	`, id)

	g, err := scanGrant(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return grants.Grant{}, ErrNotFound
		}
		return grants.Grant{}, err
	}
	return g, nil
}

func (r *GrantsRepo) ListByPair(ctx context.Context, petID, professionalID string) ([]grants.Grant, error) {
	petID = strings.TrimSpace(petID)
	professionalID = strings.TrimSpace(professionalID)
	if petID == "" || professionalID == "" {
		return nil, nil
	}

	return r.list(ctx, `
		SELECT
			id, pet_id, professional_id,
			kind, status,
			granted_at, revoked_at, expires_at,
			created_at, updated_at
		FROM grants
		WHERE pet_id = $1
		  AND professional_id = $2
		ORDER BY created_at ASC
	`, petID, professionalID)
}

func (r *GrantsRepo) ListByPet(ctx context.Context, petID string) ([]grants.Grant, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	return r.list(ctx, `
		SELECT
			id, pet_id, professional_id,
			kind, status,
			granted_at, revoked_at, expires_at,
			created_at, updated_at
		FROM grants
		WHERE pet_id = $1
		ORDER BY created_at ASC
	`, petID)
}

func (r *GrantsRepo) ListByProfessional(ctx context.Context, professionalID string) ([]grants.Grant, error) {
	professionalID = strings.TrimSpace(professionalID)
	if professionalID == "" {
		return nil, nil
	}

	return r.list(ctx, `
		SELECT
			id, pet_id, professional_id,
			kind, status,
			granted_at, revoked_at, expires_at,
			created_at, updated_at
		FROM grants
		WHERE professional_id = $1
		ORDER BY created_at ASC
	`, professionalID)
}

func (r *GrantsRepo) list(ctx context.Context, query string, args ...any) ([]grants.Grant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]grants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}

	return out, rows.Err()
}

func scanGrant(row rowScanner) (grants.Grant, error) {
	var g grants.Grant
	var kind, status string
	var grantedAt, revokedAt, expiresAt sql.NullTime

	if err := row.Scan(
		&g.ID,
		&g.PetID,
		&g.ProfessionalID,
		&kind,
		&status,
		&grantedAt,
		&revokedAt,
		&expiresAt,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		return grants.Grant{}, err
	}

	g.Kind = grants.Kind(kind)
	g.Status = grants.Status(status)
	g.GrantedAt = fromNullTime(grantedAt)
	g.RevokedAt = fromNullTime(revokedAt)
	g.ExpiresAt = fromNullTime(expiresAt)

	return g, nil
}

// helpers
func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
