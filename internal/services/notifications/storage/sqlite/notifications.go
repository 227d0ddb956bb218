package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/carcassonne/internal/services/notifications/storage"
)

const notificationColumns = `id, recipient_id, recipient_email, message_type, payload_json, dedupe_key, source, created_at, updated_at`

// PutNotificationWithDeliveries writes a notification and its first channel
// deliveries in one transaction.
func (s *Store) PutNotificationWithDeliveries(ctx context.Context, notification storage.NotificationRecord, deliveries []storage.DeliveryRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	notification, err := cleanNotification(notification)
	if err != nil {
		return err
	}
	rows := make([]storage.DeliveryRecord, len(deliveries))
	for i, d := range deliveries {
		if rows[i], err = cleanDelivery(d); err != nil {
			return err
		}
		if rows[i].NotificationID != notification.ID {
			return fmt.Errorf("delivery notification id %q does not match %q", rows[i].NotificationID, notification.ID)
		}
	}

	return s.inTx(ctx, "notification write", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			notification.ID, notification.RecipientID, notification.RecipientEmail,
			notification.MessageType, notification.PayloadJSON, notification.DedupeKey,
			notification.Source, toMillis(notification.CreatedAt), toMillis(notification.UpdatedAt),
		); err != nil {
			if sqliteViolation(err, "unique") {
				return storage.ErrConflict
			}
			return fmt.Errorf("insert notification: %w", err)
		}
		for _, d := range rows {
			if err := insertDelivery(ctx, tx, d); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetNotification loads one notification by id.
func (s *Store) GetNotification(ctx context.Context, notificationID string) (storage.NotificationRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.NotificationRecord{}, err
	}
	notificationID = strings.TrimSpace(notificationID)
	if notificationID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}
	return s.queryNotification(ctx, "get notification",
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, notificationID)
}

// GetNotificationByRecipientAndDedupeKey loads the recipient's notification
// carrying dedupeKey. A blank key never matches.
func (s *Store) GetNotificationByRecipientAndDedupeKey(ctx context.Context, recipientID string, dedupeKey string) (storage.NotificationRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.NotificationRecord{}, err
	}
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("recipient id is required")
	}
	dedupeKey = strings.TrimSpace(dedupeKey)
	if dedupeKey == "" {
		return storage.NotificationRecord{}, storage.ErrNotFound
	}
	return s.queryNotification(ctx, "get notification by dedupe key",
		`SELECT `+notificationColumns+` FROM notifications WHERE recipient_id = ? AND dedupe_key = ?`,
		recipientID, dedupeKey)
}

func (s *Store) queryNotification(ctx context.Context, label, query string, args ...any) (storage.NotificationRecord, error) {
	record, err := scanNotification(s.sqlDB.QueryRowContext(ctx, query, args...).Scan)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return storage.NotificationRecord{}, storage.ErrNotFound
	case err != nil:
		return storage.NotificationRecord{}, fmt.Errorf("%s: %w", label, err)
	}
	return record, nil
}

// ListNotificationsByRecipient pages through a recipient's notifications,
// newest first. The page token is the id of the last notification returned;
// a token that is unknown or belongs to someone else yields an empty page.
func (s *Store) ListNotificationsByRecipient(ctx context.Context, recipientID string, pageSize int, pageToken string) (storage.NotificationPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.NotificationPage{}, err
	}
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return storage.NotificationPage{}, fmt.Errorf("recipient id is required")
	}
	if pageSize <= 0 {
		return storage.NotificationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	where := "recipient_id = ?"
	args := []any{recipientID}
	if pageToken = strings.TrimSpace(pageToken); pageToken != "" {
		cursor, err := s.GetNotification(ctx, pageToken)
		if errors.Is(err, storage.ErrNotFound) {
			return storage.NotificationPage{}, nil
		}
		if err != nil {
			return storage.NotificationPage{}, err
		}
		if cursor.RecipientID != recipientID {
			return storage.NotificationPage{}, nil
		}
		created := toMillis(cursor.CreatedAt)
		where += " AND (created_at < ? OR (created_at = ? AND id < ?))"
		args = append(args, created, created, cursor.ID)
	}
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE `+where+` ORDER BY created_at DESC, id DESC LIMIT ?`,
		args...)
	if err != nil {
		return storage.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var page storage.NotificationPage
	for rows.Next() {
		record, err := scanNotification(rows.Scan)
		if err != nil {
			return storage.NotificationPage{}, fmt.Errorf("scan notification: %w", err)
		}
		page.Notifications = append(page.Notifications, record)
	}
	if err := rows.Err(); err != nil {
		return storage.NotificationPage{}, fmt.Errorf("iterate notifications: %w", err)
	}
	if len(page.Notifications) > pageSize {
		page.Notifications = page.Notifications[:pageSize]
		page.NextPageToken = page.Notifications[pageSize-1].ID
	}
	return page, nil
}

func cleanNotification(n storage.NotificationRecord) (storage.NotificationRecord, error) {
	for _, field := range []*string{&n.ID, &n.RecipientID, &n.RecipientEmail, &n.MessageType, &n.DedupeKey, &n.Source, &n.PayloadJSON} {
		*field = strings.TrimSpace(*field)
	}
	if n.PayloadJSON == "" {
		n.PayloadJSON = "{}"
	}
	switch {
	case n.ID == "":
		return n, fmt.Errorf("notification id is required")
	case n.RecipientID == "":
		return n, fmt.Errorf("recipient id is required")
	case n.MessageType == "":
		return n, fmt.Errorf("message type is required")
	case n.CreatedAt.IsZero() || n.UpdatedAt.IsZero():
		return n, fmt.Errorf("notification timestamps are required")
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n, nil
}

func scanNotification(scan scanner) (storage.NotificationRecord, error) {
	var n storage.NotificationRecord
	var createdAt, updatedAt int64
	err := scan(&n.ID, &n.RecipientID, &n.RecipientEmail, &n.MessageType, &n.PayloadJSON,
		&n.DedupeKey, &n.Source, &createdAt, &updatedAt)
	if err != nil {
		return storage.NotificationRecord{}, err
	}
	n.CreatedAt = fromMillis(createdAt)
	n.UpdatedAt = fromMillis(updatedAt)
	return n, nil
}
