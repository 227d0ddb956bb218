package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/carcassonne/internal/services/notifications/storage"
)

const deliveryColumns = `notification_id, channel, status, attempt_count, next_attempt_at, last_error, created_at, updated_at, delivered_at`

var knownStatuses = map[storage.DeliveryStatus]bool{
	storage.DeliveryStatusPending:   true,
	storage.DeliveryStatusFailed:    true,
	storage.DeliveryStatusDelivered: true,
	storage.DeliveryStatusSkipped:   true,
	storage.DeliveryStatusAbandoned: true,
}

// deliveryKey addresses one delivery row.
type deliveryKey struct {
	notificationID string
	channel        storage.DeliveryChannel
}

func newDeliveryKey(notificationID string, channel storage.DeliveryChannel) (deliveryKey, error) {
	key := deliveryKey{
		notificationID: strings.TrimSpace(notificationID),
		channel:        storage.DeliveryChannel(strings.TrimSpace(string(channel))),
	}
	if key.notificationID == "" {
		return key, fmt.Errorf("notification id is required")
	}
	if key.channel == "" {
		return key, fmt.Errorf("delivery channel is required")
	}
	return key, nil
}

// GetDelivery loads one channel delivery row.
func (s *Store) GetDelivery(ctx context.Context, notificationID string, channel storage.DeliveryChannel) (storage.DeliveryRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.DeliveryRecord{}, err
	}
	key, err := newDeliveryKey(notificationID, channel)
	if err != nil {
		return storage.DeliveryRecord{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM notification_deliveries WHERE notification_id = ? AND channel = ?`,
		key.notificationID, key.channel)
	record, err := scanDelivery(row.Scan)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return storage.DeliveryRecord{}, storage.ErrNotFound
	case err != nil:
		return storage.DeliveryRecord{}, fmt.Errorf("get delivery: %w", err)
	}
	return record, nil
}

// ListPendingDeliveries returns pending or failed deliveries on channel whose
// next attempt is due at now, oldest first.
func (s *Store) ListPendingDeliveries(ctx context.Context, channel storage.DeliveryChannel, limit int, now time.Time) ([]storage.DeliveryRecord, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	channel = storage.DeliveryChannel(strings.TrimSpace(string(channel)))
	switch {
	case channel == "":
		return nil, fmt.Errorf("delivery channel is required")
	case limit <= 0:
		return nil, fmt.Errorf("limit must be greater than zero")
	case now.IsZero():
		return nil, fmt.Errorf("now is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+deliveryColumns+`
FROM notification_deliveries
WHERE channel = ? AND status IN (?, ?) AND next_attempt_at <= ?
ORDER BY next_attempt_at, notification_id
LIMIT ?`,
		channel, storage.DeliveryStatusPending, storage.DeliveryStatusFailed, toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("list pending deliveries: %w", err)
	}
	defer rows.Close()

	var due []storage.DeliveryRecord
	for rows.Next() {
		record, err := scanDelivery(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		due = append(due, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return due, nil
}

// MarkDeliveryRetry records a failed attempt and schedules the next one.
func (s *Store) MarkDeliveryRetry(ctx context.Context, notificationID string, channel storage.DeliveryChannel, attemptCount int, nextAttemptAt time.Time, lastError string) error {
	if nextAttemptAt.IsZero() {
		return fmt.Errorf("next attempt at is required")
	}
	return s.markFailure(ctx, storage.DeliveryStatusFailed, notificationID, channel, attemptCount, nextAttemptAt, lastError)
}

// MarkDeliveryAbandoned records the last failed attempt. The delivery is no
// longer polled.
func (s *Store) MarkDeliveryAbandoned(ctx context.Context, notificationID string, channel storage.DeliveryChannel, attemptCount int, at time.Time, lastError string) error {
	if at.IsZero() {
		return fmt.Errorf("abandoned at is required")
	}
	return s.markFailure(ctx, storage.DeliveryStatusAbandoned, notificationID, channel, attemptCount, at, lastError)
}

func (s *Store) markFailure(ctx context.Context, status storage.DeliveryStatus, notificationID string, channel storage.DeliveryChannel, attemptCount int, at time.Time, lastError string) error {
	if attemptCount < 0 {
		return fmt.Errorf("attempt count must be non-negative")
	}
	return s.updateDelivery(ctx, string(status), notificationID, channel,
		`status = ?, attempt_count = ?, next_attempt_at = ?, last_error = ?, updated_at = ?, delivered_at = NULL`,
		status, attemptCount, toMillis(at), strings.TrimSpace(lastError), toMillis(s.clock()))
}

// MarkDeliverySucceeded records a successful send and counts the attempt.
func (s *Store) MarkDeliverySucceeded(ctx context.Context, notificationID string, channel storage.DeliveryChannel, deliveredAt time.Time) error {
	if deliveredAt.IsZero() {
		return fmt.Errorf("delivered at is required")
	}
	at := toMillis(deliveredAt)
	return s.updateDelivery(ctx, "succeeded", notificationID, channel,
		`status = ?, attempt_count = attempt_count + 1, last_error = '', updated_at = ?, delivered_at = ?`,
		storage.DeliveryStatusDelivered, at, at)
}

// updateDelivery applies set to one delivery row. A missing row is
// storage.ErrNotFound.
func (s *Store) updateDelivery(ctx context.Context, label, notificationID string, channel storage.DeliveryChannel, set string, args ...any) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	key, err := newDeliveryKey(notificationID, channel)
	if err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE notification_deliveries SET `+set+` WHERE notification_id = ? AND channel = ?`,
		append(args, key.notificationID, key.channel)...)
	if err != nil {
		return fmt.Errorf("mark delivery %s: %w", label, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark delivery %s: %w", label, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func insertDelivery(ctx context.Context, tx *sql.Tx, d storage.DeliveryRecord) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO notification_deliveries (`+deliveryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.NotificationID, d.Channel, d.Status, d.AttemptCount, toMillis(d.NextAttemptAt),
		d.LastError, toMillis(d.CreatedAt), toMillis(d.UpdatedAt), nullMillis(d.DeliveredAt))
	if err != nil {
		if sqliteViolation(err, "unique") || sqliteViolation(err, "foreign key") {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func cleanDelivery(d storage.DeliveryRecord) (storage.DeliveryRecord, error) {
	key, err := newDeliveryKey(d.NotificationID, d.Channel)
	if err != nil {
		return d, err
	}
	d.NotificationID, d.Channel = key.notificationID, key.channel
	d.Status = storage.DeliveryStatus(strings.TrimSpace(string(d.Status)))
	d.LastError = strings.TrimSpace(d.LastError)
	if !knownStatuses[d.Status] {
		return d, fmt.Errorf("unknown delivery status %q", d.Status)
	}
	if d.NextAttemptAt.IsZero() || d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
		return d, fmt.Errorf("delivery timestamps are required")
	}
	d.NextAttemptAt = d.NextAttemptAt.UTC()
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	if d.DeliveredAt != nil {
		at := d.DeliveredAt.UTC()
		d.DeliveredAt = &at
	}
	return d, nil
}

func scanDelivery(scan scanner) (storage.DeliveryRecord, error) {
	var d storage.DeliveryRecord
	var nextAttempt, created, updated int64
	var deliveredAt sql.NullInt64
	err := scan(&d.NotificationID, &d.Channel, &d.Status, &d.AttemptCount, &nextAttempt,
		&d.LastError, &created, &updated, &deliveredAt)
	if err != nil {
		return storage.DeliveryRecord{}, err
	}
	d.NextAttemptAt = fromMillis(nextAttempt)
	d.CreatedAt = fromMillis(created)
	d.UpdatedAt = fromMillis(updated)
	if deliveredAt.Valid {
		at := fromMillis(deliveredAt.Int64)
		d.DeliveredAt = &at
	}
	return d, nil
}
