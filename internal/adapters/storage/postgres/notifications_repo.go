package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"petbook-access/internal/notifications"
)

type NotificationsRepo struct {
	db *sql.DB
}

func NewNotificationsRepo(db *sql.DB) *NotificationsRepo {
	return &NotificationsRepo{db: db}
}

func (r *NotificationsRepo) Create(ctx context.Context, n notifications.Notification) error {
	related, err := json.Marshal(relatedOrEmpty(n.Related))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, type, recipient_id, message,
			related, is_read,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		n.ID,
		n.Type,
		n.RecipientID,
		n.Message,
		related,
		n.IsRead,
		n.CreatedAt,
	)
	return err
}

func (r *NotificationsRepo) GetByID(ctx context.Context, id string) (notifications.Notification, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return notifications.Notification{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, type, recipient_id, message,
			related, is_read,
			created_at
		FROM notifications
		WHERE id = $1
	`, id)

	n, err := scanNotification(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return notifications.Notification{}, ErrNotFound
		}
		return notifications.Notification{}, err
	}
	return n, nil
}

func (r *NotificationsRepo) ListByRecipient(ctx context.Context, recipientID string) ([]notifications.Notification, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, type, recipient_id, message,
			related, is_read,
			created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
	`, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notifications.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}

	return out, rows.Err()
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanNotification(row rowScanner) (notifications.Notification, error) {
	var n notifications.Notification
	var related []byte

	if err := row.Scan(
		&n.ID,
		&n.Type,
		&n.RecipientID,
		&n.Message,
		&related,
		&n.IsRead,
		&n.CreatedAt,
	); err != nil {
		return notifications.Notification{}, err
	}

	if len(related) > 0 {
		if err := json.Unmarshal(related, &n.Related); err != nil {
			return notifications.Notification{}, err
		}
	}

	return n, nil
}

func relatedOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
