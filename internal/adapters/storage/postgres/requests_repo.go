package postgres

import (
	"context"
	"database/sql"
	"strings"

	"petbook-access/internal/domain/accessrequests"
)

type AccessRequestsRepo struct {
	db *sql.DB
}

func NewAccessRequestsRepo(db *sql.DB) *AccessRequestsRepo {
	return &AccessRequestsRepo{db: db}
}

func (r *AccessRequestsRepo) Create(ctx context.Context, req accessrequests.AccessRequest) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO access_requests (
			id, pet_id, professional_id,
			status,
			created_at, resolved_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		req.ID,
		req.PetID,
		req.ProfessionalID,
		string(req.Status),
		req.CreatedAt,
		toNullTime(req.ResolvedAt),
	)
	return err
}

func (r *AccessRequestsRepo) Update(ctx context.Context, req accessrequests.AccessRequest) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE access_requests
		SET
			status = $2,
			resolved_at = $3
		WHERE id = $1
	`,
		req.ID,
		string(req.Status),
		toNullTime(req.ResolvedAt),
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

// ResolvePending condiciona el UPDATE al estado pending: la fila solo se
// resuelve una vez aunque lleguen dos approves en paralelo. Con cero filas
// afectadas distingue inexistente de ya-resuelto releyendo el status.
func (r *AccessRequestsRepo) ResolvePending(ctx context.Context, req accessrequests.AccessRequest) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE access_requests
		SET
			status = $2,
			resolved_at = $3
		WHERE id = $1 AND status = 'pending'
	`,
		req.ID,
		string(req.Status),
		toNullTime(req.ResolvedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	var status string
	err = r.db.QueryRowContext(ctx, `
		SELECT status FROM access_requests WHERE id = $1
	`, req.ID).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return accessrequests.ErrAlreadyResolved
}

func (r *AccessRequestsRepo) GetByID(ctx context.Context, id string) (accessrequests.AccessRequest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accessrequests.AccessRequest{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, pet_id, professional_id,
			status,
			created_at, resolved_at
		FROM access_requests
		WHERE id = $1
	`, id)

	req, err := scanAccessRequest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return accessrequests.AccessRequest{}, ErrNotFound
		}
		return accessrequests.AccessRequest{}, err
	}
	return req, nil
}

func (r *AccessRequestsRepo) ListByPet(ctx context.Context, petID string) ([]accessrequests.AccessRequest, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, pet_id, professional_id,
			status,
			created_at, resolved_at
		FROM access_requests
		WHERE pet_id = $1
		ORDER BY created_at ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accessrequests.AccessRequest, 0)
	for rows.Next() {
		req, err := scanAccessRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}

	return out, rows.Err()
}

func scanAccessRequest(row rowScanner) (accessrequests.AccessRequest, error) {
	var req accessrequests.AccessRequest
	var status string
	var resolvedAt sql.NullTime

	if err := row.Scan(
		&req.ID,
		&req.PetID,
		&req.ProfessionalID,
		&status,
		&req.CreatedAt,
		&resolvedAt,
	); err != nil {
		return accessrequests.AccessRequest{}, err
	}

	req.Status = accessrequests.Status(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		req.ResolvedAt = &t
	}

	return req, nil
}
