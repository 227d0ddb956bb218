package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/carcassonne/internal/platform/logging"
	"github.com/louisbranch/carcassonne/internal/services/notifications/domain"
	"github.com/louisbranch/carcassonne/internal/services/notifications/render"
	"github.com/louisbranch/carcassonne/internal/services/notifications/storage"
	notificationsqlite "github.com/louisbranch/carcassonne/internal/services/notifications/storage/sqlite"
	"go.uber.org/zap"
)

const sourceGame = "game"

// Config controls the outbox composition.
type Config struct {
	DBPath       string
	Locale       string
	Sender       string
	EmailEnabled bool
	Retry        domain.RetryPolicy
	BatchSize    int
}

// Outbox records notification intents and drains their email deliveries.
type Outbox struct {
	store    storage.Store
	service  *domain.Service
	mailer   domain.Mailer
	renderer domain.Renderer
	config   Config
	logger   *zap.Logger
}

// Option customizes an Outbox.
type Option func(*Outbox)

// WithMailer replaces the default LogMailer.
func WithMailer(mailer domain.Mailer) Option {
	return func(o *Outbox) {
		if mailer != nil {
			o.mailer = mailer
		}
	}
}

// WithClock sets the clock used for notification and delivery timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *Outbox) {
		o.service = domain.NewService(newDomainStoreAdapter(o.store, o.store, o.config.EmailEnabled), clock, nil)
	}
}

// Open opens the notifications SQLite store at cfg.DBPath.
func Open(cfg Config, logger *zap.Logger, opts ...Option) (*Outbox, error) {
	store, err := notificationsqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open notifications store: %w", err)
	}
	return NewOutbox(store, cfg, logger, opts...), nil
}

// NewOutbox composes an outbox over an already opened store.
func NewOutbox(store storage.Store, cfg Config, logger *zap.Logger, opts ...Option) *Outbox {
	logger = logging.OrNop(logger)
	o := &Outbox{
		store:    store,
		service:  domain.NewService(newDomainStoreAdapter(store, store, cfg.EmailEnabled), nil, nil),
		mailer:   LogMailer{From: cfg.Sender, Logger: logger},
		renderer: emailRenderer{localizer: render.NewLocalizer(cfg.Locale)},
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Close releases the underlying store.
func (o *Outbox) Close() error {
	if o == nil || o.store == nil {
		return nil
	}
	return o.store.Close()
}

// TurnReady records a "your turn" notification for one recipient.
func (o *Outbox) TurnReady(ctx context.Context, recipientID, recipientEmail, subject, body, dedupeKey string) (domain.Notification, error) {
	if o == nil {
		return domain.Notification{}, domain.ErrStoreNotConfigured
	}
	payload, err := json.Marshal(render.TurnReadyPayload{
		Subject: strings.TrimSpace(subject),
		Body:    strings.TrimSpace(body),
	})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("encode turn payload: %w", err)
	}
	return o.service.CreateIntent(ctx, domain.CreateIntentInput{
		RecipientID:    recipientID,
		RecipientEmail: recipientEmail,
		MessageType:    domain.MessageTypeTurnReady,
		PayloadJSON:    string(payload),
		DedupeKey:      dedupeKey,
		Source:         sourceGame,
	})
}

// Inbox lists one recipient's notifications newest first.
func (o *Outbox) Inbox(ctx context.Context, recipientID string, pageSize int, pageToken string) (domain.NotificationPage, error) {
	if o == nil {
		return domain.NotificationPage{}, domain.ErrStoreNotConfigured
	}
	return o.service.ListInbox(ctx, domain.ListInboxInput{
		RecipientID: recipientID,
		PageSize:    pageSize,
		PageToken:   pageToken,
	})
}

// Deliver sends every due email once.
func (o *Outbox) Deliver(ctx context.Context) (domain.DeliveryReport, error) {
	if o == nil {
		return domain.DeliveryReport{}, domain.ErrStoreNotConfigured
	}
	report, err := o.service.DeliverPending(ctx, domain.DeliverInput{
		Mailer:   o.mailer,
		Renderer: o.renderer,
		Retry:    o.config.Retry,
		Limit:    o.config.BatchSize,
	})
	if err != nil {
		o.logger.Error("deliver notifications", zap.Error(err))
		return report, err
	}
	o.logger.Info("notifications delivered",
		zap.Int("delivered", report.Delivered),
		zap.Int("retried", report.Retried),
		zap.Int("abandoned", report.Abandoned),
	)
	return report, nil
}
