package postgres

import (
	"context"
	"database/sql"
	"strings"

	"petbook-access/internal/domain/accesstokens"
)

type AccessTokensRepo struct {
	db *sql.DB
}

func NewAccessTokensRepo(db *sql.DB) *AccessTokensRepo {
	return &AccessTokensRepo{db: db}
}

func (r *AccessTokensRepo) Create(ctx context.Context, t accesstokens.AccessToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_tokens (
			id, pet_id, value,
			created_at, expires_at
		) VALUES ($1,$2,$3,$4,$5)
	`,
		t.ID,
		t.PetID,
		t.Value,
		t.CreatedAt,
		t.ExpiresAt,
	)
	return err
}

func (r *AccessTokensRepo) Get(ctx context.Context, petID, value string) (accesstokens.AccessToken, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" || value == "" {
		return accesstokens.AccessToken{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, pet_id, value,
			created_at, expires_at
		FROM access_tokens
		WHERE pet_id = $1
		  AND value = $2
	`, petID, value)

	var t accesstokens.AccessToken
	if err := row.Scan(
		&t.ID,
		&t.PetID,
		&t.Value,
		&t.CreatedAt,
		&t.ExpiresAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return accesstokens.AccessToken{}, ErrNotFound
		}
		return accesstokens.AccessToken{}, err
	}

	return t, nil
}

func (r *AccessTokensRepo) ListByPet(ctx context.Context, petID string) ([]accesstokens.AccessToken, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, pet_id, value,
			created_at, expires_at
		FROM access_tokens
		WHERE pet_id = $1
		ORDER BY created_at ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accesstokens.AccessToken, 0)
	for rows.Next() {
		var t accesstokens.AccessToken
		if err := rows.Scan(
			&t.ID,
			&t.PetID,
			&t.Value,
			&t.CreatedAt,
			&t.ExpiresAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, rows.Err()
}
