package server

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/carcassonne/internal/services/notifications/domain"
	"github.com/louisbranch/carcassonne/internal/services/notifications/storage"
)

const emailDisabledReason = "email delivery disabled"

// domainStoreAdapter serves domain.Store from the storage contracts. Email
// delivery rows always use storage.DeliveryChannelEmail.
type domainStoreAdapter struct {
	notifications storage.NotificationStore
	deliveries    storage.DeliveryStore
	emailEnabled  bool
}

var _ domain.Store = (*domainStoreAdapter)(nil)

func newDomainStoreAdapter(notifications storage.NotificationStore, deliveries storage.DeliveryStore, emailEnabled bool) *domainStoreAdapter {
	return &domainStoreAdapter{
		notifications: notifications,
		deliveries:    deliveries,
		emailEnabled:  emailEnabled,
	}
}

func (a *domainStoreAdapter) notificationStore() (storage.NotificationStore, error) {
	if a == nil || a.notifications == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	return a.notifications, nil
}

func (a *domainStoreAdapter) deliveryStore() (storage.DeliveryStore, error) {
	if a == nil || a.deliveries == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	return a.deliveries, nil
}

func (a *domainStoreAdapter) GetNotification(ctx context.Context, notificationID string) (domain.Notification, error) {
	store, err := a.notificationStore()
	if err != nil {
		return domain.Notification{}, err
	}
	record, err := store.GetNotification(ctx, notificationID)
	if err != nil {
		return domain.Notification{}, mapStorageError(err)
	}
	return domain.Notification(record), nil
}

func (a *domainStoreAdapter) GetNotificationByRecipientAndDedupeKey(ctx context.Context, recipientID string, dedupeKey string) (domain.Notification, error) {
	store, err := a.notificationStore()
	if err != nil {
		return domain.Notification{}, err
	}
	record, err := store.GetNotificationByRecipientAndDedupeKey(ctx, recipientID, dedupeKey)
	if err != nil {
		return domain.Notification{}, mapStorageError(err)
	}
	return domain.Notification(record), nil
}

// PutNotification writes n together with the deliveries its message type
// asks for.
func (a *domainStoreAdapter) PutNotification(ctx context.Context, n domain.Notification) error {
	store, err := a.notificationStore()
	if err != nil {
		return err
	}
	return mapStorageError(store.PutNotificationWithDeliveries(ctx, storage.NotificationRecord(n), a.initialDeliveries(n)))
}

func (a *domainStoreAdapter) initialDeliveries(n domain.Notification) []storage.DeliveryRecord {
	if !domain.ResolveDeliveryPolicy(n.MessageType).Email {
		return nil
	}
	at := n.CreatedAt.UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	email := storage.DeliveryRecord{
		NotificationID: n.ID,
		Channel:        storage.DeliveryChannelEmail,
		Status:         storage.DeliveryStatusPending,
		NextAttemptAt:  at,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	// A disabled channel is recorded as settled so it never polls.
	if !a.emailEnabled {
		email.Status = storage.DeliveryStatusSkipped
		email.LastError = emailDisabledReason
		email.DeliveredAt = &at
	}
	return []storage.DeliveryRecord{email}
}

func (a *domainStoreAdapter) ListNotificationsByRecipient(ctx context.Context, recipientID string, pageSize int, pageToken string) (domain.NotificationPage, error) {
	store, err := a.notificationStore()
	if err != nil {
		return domain.NotificationPage{}, err
	}
	page, err := store.ListNotificationsByRecipient(ctx, recipientID, pageSize, pageToken)
	if err != nil {
		return domain.NotificationPage{}, mapStorageError(err)
	}
	out := domain.NotificationPage{NextPageToken: page.NextPageToken}
	for _, record := range page.Notifications {
		out.Notifications = append(out.Notifications, domain.Notification(record))
	}
	return out, nil
}

func (a *domainStoreAdapter) ListDueEmailDeliveries(ctx context.Context, limit int, now time.Time) ([]domain.Delivery, error) {
	store, err := a.deliveryStore()
	if err != nil {
		return nil, err
	}
	records, err := store.ListPendingDeliveries(ctx, storage.DeliveryChannelEmail, limit, now)
	if err != nil {
		return nil, mapStorageError(err)
	}
	due := make([]domain.Delivery, len(records))
	for i, r := range records {
		due[i] = domain.Delivery{
			NotificationID: r.NotificationID,
			AttemptCount:   r.AttemptCount,
			NextAttemptAt:  r.NextAttemptAt,
			LastError:      r.LastError,
		}
	}
	return due, nil
}

func (a *domainStoreAdapter) MarkEmailRetry(ctx context.Context, notificationID string, attemptCount int, nextAttemptAt time.Time, lastError string) error {
	store, err := a.deliveryStore()
	if err != nil {
		return err
	}
	return mapStorageError(store.MarkDeliveryRetry(ctx, notificationID, storage.DeliveryChannelEmail, attemptCount, nextAttemptAt, lastError))
}

func (a *domainStoreAdapter) MarkEmailAbandoned(ctx context.Context, notificationID string, attemptCount int, at time.Time, lastError string) error {
	store, err := a.deliveryStore()
	if err != nil {
		return err
	}
	return mapStorageError(store.MarkDeliveryAbandoned(ctx, notificationID, storage.DeliveryChannelEmail, attemptCount, at, lastError))
}

func (a *domainStoreAdapter) MarkEmailDelivered(ctx context.Context, notificationID string, deliveredAt time.Time) error {
	store, err := a.deliveryStore()
	if err != nil {
		return err
	}
	return mapStorageError(store.MarkDeliverySucceeded(ctx, notificationID, storage.DeliveryChannelEmail, deliveredAt))
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		return domain.ErrConflict
	default:
		return err
	}
}
