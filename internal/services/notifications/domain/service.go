// Package domain holds the notification outbox use-cases: recording intents,
// listing a recipient inbox and draining due email deliveries.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/louisbranch/carcassonne/internal/platform/id"
)

var (
	// ErrNotFound indicates a notification record was not found.
	ErrNotFound = errors.New("notification not found")
	// ErrConflict indicates a write conflicted with existing uniqueness constraints.
	ErrConflict = errors.New("notification conflict")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("notification store is not configured")
	// ErrRecipientIDRequired indicates recipient identity is required.
	ErrRecipientIDRequired = errors.New("recipient id is required")
	// ErrMessageTypeRequired indicates a message type is required.
	ErrMessageTypeRequired = errors.New("notification message type is required")
	// ErrIDGeneratorNotConfigured indicates an ID generator is required.
	ErrIDGeneratorNotConfigured = errors.New("notification id generator is not configured")
	// ErrMailerNotConfigured indicates delivery was requested without a mailer.
	ErrMailerNotConfigured = errors.New("notification mailer is not configured")
)

const (
	defaultPageSize = 50
	maxPageSize     = 200

	defaultDeliverBatch = 100
)

// Notification captures one recipient-targeted notification item.
type Notification struct {
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

// NotificationPage is a paged recipient inbox view.
type NotificationPage struct {
	Notifications []Notification
	NextPageToken string
}

// Delivery is the email delivery state of one notification.
type Delivery struct {
	NotificationID string
	AttemptCount   int
	NextAttemptAt  time.Time
	LastError      string
}

// CreateIntentInput describes one producer notification request.
type CreateIntentInput struct {
	RecipientID    string
	RecipientEmail string
	MessageType    string
	PayloadJSON    string
	DedupeKey      string
	Source         string
}

// ListInboxInput configures recipient inbox listing.
type ListInboxInput struct {
	RecipientID string
	PageSize    int
	PageToken   string
}

// Store is the domain persistence boundary for notification lifecycle behavior.
type Store interface {
	GetNotification(ctx context.Context, notificationID string) (Notification, error)
	GetNotificationByRecipientAndDedupeKey(ctx context.Context, recipientID string, dedupeKey string) (Notification, error)
	// PutNotification persists the notification together with the delivery
	// rows its message type calls for.
	PutNotification(ctx context.Context, notification Notification) error
	ListNotificationsByRecipient(ctx context.Context, recipientID string, pageSize int, pageToken string) (NotificationPage, error)
	ListDueEmailDeliveries(ctx context.Context, limit int, now time.Time) ([]Delivery, error)
	MarkEmailRetry(ctx context.Context, notificationID string, attemptCount int, nextAttemptAt time.Time, lastError string) error
	MarkEmailAbandoned(ctx context.Context, notificationID string, attemptCount int, at time.Time, lastError string) error
	MarkEmailDelivered(ctx context.Context, notificationID string, deliveredAt time.Time) error
}

// Service orchestrates recipient inbox lifecycle behavior.
type Service struct {
	store Store
	clock func() time.Time
	newID func() (string, error)
}

// NewService constructs notification domain use-cases.
func NewService(store Store, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store: store,
		clock: clock,
		newID: newID,
	}
}

// CreateIntent records a notification for a recipient. Intents sharing a
// non-empty dedupe key with an earlier one return the earlier notification,
// including when two writers race on the key.
func (s *Service) CreateIntent(ctx context.Context, input CreateIntentInput) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, ErrStoreNotConfigured
	}
	if s.newID == nil {
		return Notification{}, ErrIDGeneratorNotConfigured
	}
	n, err := intentNotification(input)
	if err != nil {
		return Notification{}, err
	}
	if existing, found, err := s.findDuplicate(ctx, n); err != nil || found {
		return existing, err
	}

	if n.ID, err = s.newID(); err != nil {
		return Notification{}, err
	}
	n.CreatedAt = s.nowUTC()
	n.UpdatedAt = n.CreatedAt
	err = s.store.PutNotification(ctx, n)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, ErrConflict) || n.DedupeKey == "" {
		return Notification{}, err
	}
	existing, found, lookupErr := s.findDuplicate(ctx, n)
	switch {
	case lookupErr != nil:
		return Notification{}, lookupErr
	case !found:
		return Notification{}, err
	}
	return existing, nil
}

func intentNotification(input CreateIntentInput) (Notification, error) {
	n := Notification{
		RecipientID:    strings.TrimSpace(input.RecipientID),
		RecipientEmail: strings.TrimSpace(input.RecipientEmail),
		MessageType:    NormalizeMessageType(input.MessageType),
		PayloadJSON:    strings.TrimSpace(input.PayloadJSON),
		DedupeKey:      strings.TrimSpace(input.DedupeKey),
		Source:         strings.TrimSpace(input.Source),
	}
	if n.RecipientID == "" {
		return Notification{}, ErrRecipientIDRequired
	}
	if n.MessageType == "" {
		return Notification{}, ErrMessageTypeRequired
	}
	return n, nil
}

// findDuplicate looks up the notification already holding n's dedupe key.
func (s *Service) findDuplicate(ctx context.Context, n Notification) (Notification, bool, error) {
	if n.DedupeKey == "" {
		return Notification{}, false, nil
	}
	existing, err := s.store.GetNotificationByRecipientAndDedupeKey(ctx, n.RecipientID, n.DedupeKey)
	switch {
	case errors.Is(err, ErrNotFound):
		return Notification{}, false, nil
	case err != nil:
		return Notification{}, false, err
	}
	return existing, true, nil
}

// ListInbox lists recipient inbox notifications newest first.
func (s *Service) ListInbox(ctx context.Context, input ListInboxInput) (NotificationPage, error) {
	if s == nil || s.store == nil {
		return NotificationPage{}, ErrStoreNotConfigured
	}
	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return NotificationPage{}, ErrRecipientIDRequired
	}
	pageSize := input.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return s.store.ListNotificationsByRecipient(ctx, recipientID, pageSize, strings.TrimSpace(input.PageToken))
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

