// Package storage defines the persistence contracts for the notification
// outbox: one notification row per intent plus one delivery row per channel.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested notification or delivery record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
)

// DeliveryChannel identifies one notification channel type.
type DeliveryChannel string

const (
	// DeliveryChannelEmail represents email delivery.
	DeliveryChannelEmail DeliveryChannel = "email"
)

// DeliveryStatus identifies one delivery lifecycle state.
type DeliveryStatus string

const (
	// DeliveryStatusPending means the delivery is queued for processing.
	DeliveryStatusPending DeliveryStatus = "pending"
	// DeliveryStatusFailed means the delivery attempt failed and can be retried.
	DeliveryStatusFailed DeliveryStatus = "failed"
	// DeliveryStatusDelivered means the channel delivery was completed.
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	// DeliveryStatusSkipped means the channel was intentionally skipped.
	DeliveryStatusSkipped DeliveryStatus = "skipped"
	// DeliveryStatusAbandoned means retries were exhausted.
	DeliveryStatusAbandoned DeliveryStatus = "abandoned"
)

// NotificationRecord stores one recipient notification.
type NotificationRecord struct {
	ID             string
	RecipientID    string
	RecipientEmail string
	MessageType    string
	PayloadJSON    string
	DedupeKey      string
	Source         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NotificationPage stores a paged inbox listing result.
type NotificationPage struct {
	Notifications []NotificationRecord
	NextPageToken string
}

// DeliveryRecord stores one channel-delivery attempt state.
type DeliveryRecord struct {
	NotificationID string
	Channel        DeliveryChannel
	Status         DeliveryStatus
	AttemptCount   int
	NextAttemptAt  time.Time
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeliveredAt    *time.Time
}

// NotificationStore persists notification inbox state.
type NotificationStore interface {
	GetNotification(ctx context.Context, notificationID string) (NotificationRecord, error)
	GetNotificationByRecipientAndDedupeKey(ctx context.Context, recipientID string, dedupeKey string) (NotificationRecord, error)
	ListNotificationsByRecipient(ctx context.Context, recipientID string, pageSize int, pageToken string) (NotificationPage, error)
	// PutNotificationWithDeliveries atomically persists a notification with its
	// initial channel deliveries.
	PutNotificationWithDeliveries(ctx context.Context, notification NotificationRecord, deliveries []DeliveryRecord) error
}

// DeliveryStore persists channel delivery attempt state.
type DeliveryStore interface {
	GetDelivery(ctx context.Context, notificationID string, channel DeliveryChannel) (DeliveryRecord, error)
	ListPendingDeliveries(ctx context.Context, channel DeliveryChannel, limit int, now time.Time) ([]DeliveryRecord, error)
	MarkDeliveryRetry(ctx context.Context, notificationID string, channel DeliveryChannel, attemptCount int, nextAttemptAt time.Time, lastError string) error
	MarkDeliveryAbandoned(ctx context.Context, notificationID string, channel DeliveryChannel, attemptCount int, at time.Time, lastError string) error
	MarkDeliverySucceeded(ctx context.Context, notificationID string, channel DeliveryChannel, deliveredAt time.Time) error
}

// Store is the full notifications persistence surface.
type Store interface {
	NotificationStore
	DeliveryStore
	Close() error
}
