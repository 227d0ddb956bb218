package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultRetryBackoff  = 30 * time.Second
	defaultRetryMaxDelay = 15 * time.Minute
	defaultMaxAttempts   = 5
)

// Email is one rendered message handed to a Mailer.
type Email struct {
	NotificationID string
	To             string
	Subject        string
	Body           string
}

// Mailer sends one rendered email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// Renderer produces email copy for a stored notification.
type Renderer interface {
	RenderEmail(notification Notification) (subject string, body string)
}

// RetryPolicy controls how failed deliveries are rescheduled.
type RetryPolicy struct {
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
	MaxAttempts   int
}

// DefaultRetryPolicy returns the delivery retry defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		RetryBackoff:  defaultRetryBackoff,
		RetryMaxDelay: defaultRetryMaxDelay,
		MaxAttempts:   defaultMaxAttempts,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	defaults := DefaultRetryPolicy()
	if p.RetryBackoff <= 0 {
		p.RetryBackoff = defaults.RetryBackoff
	}
	if p.RetryMaxDelay <= 0 {
		p.RetryMaxDelay = defaults.RetryMaxDelay
	}
	if p.RetryMaxDelay < p.RetryBackoff {
		p.RetryMaxDelay = p.RetryBackoff
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaults.MaxAttempts
	}
	return p
}

// Delay returns the wait before the next attempt after attempt failures.
// It doubles from RetryBackoff and is capped at RetryMaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	p = p.normalized()
	if attempt < 1 {
		attempt = 1
	}
	delay := p.RetryBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.RetryMaxDelay {
			return p.RetryMaxDelay
		}
	}
	return delay
}

// DeliverInput configures one delivery pass.
type DeliverInput struct {
	Mailer   Mailer
	Renderer Renderer
	Retry    RetryPolicy
	Limit    int
}

// DeliveryReport counts the outcomes of one delivery pass.
type DeliveryReport struct {
	Delivered int
	Retried   int
	Abandoned int
}

// DeliverPending sends every email delivery due now. Send failures are
// rescheduled with backoff until MaxAttempts is reached, then abandoned.
// Store failures stop the pass.
func (s *Service) DeliverPending(ctx context.Context, input DeliverInput) (DeliveryReport, error) {
	if s == nil || s.store == nil {
		return DeliveryReport{}, ErrStoreNotConfigured
	}
	if input.Mailer == nil {
		return DeliveryReport{}, ErrMailerNotConfigured
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultDeliverBatch
	}
	policy := input.Retry.normalized()

	now := s.nowUTC()
	due, err := s.store.ListDueEmailDeliveries(ctx, limit, now)
	if err != nil {
		return DeliveryReport{}, err
	}

	var report DeliveryReport
	for _, delivery := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		notification, err := s.store.GetNotification(ctx, delivery.NotificationID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return report, err
		}
		var sendErr error
		if err != nil {
			sendErr = permanent("notification %s is missing", delivery.NotificationID)
		} else {
			sendErr = sendOne(ctx, input, notification)
		}
		if sendErr == nil {
			if err := s.store.MarkEmailDelivered(ctx, delivery.NotificationID, now); err != nil {
				return report, err
			}
			report.Delivered++
			continue
		}

		attempts := delivery.AttemptCount + 1
		var permanentErr deliveryError
		if errors.As(sendErr, &permanentErr) || attempts >= policy.MaxAttempts {
			if err := s.store.MarkEmailAbandoned(ctx, delivery.NotificationID, attempts, now, sendErr.Error()); err != nil {
				return report, err
			}
			report.Abandoned++
			continue
		}
		if err := s.store.MarkEmailRetry(ctx, delivery.NotificationID, attempts, now.Add(policy.Delay(attempts)), sendErr.Error()); err != nil {
			return report, err
		}
		report.Retried++
	}
	return report, nil
}

func sendOne(ctx context.Context, input DeliverInput, notification Notification) error {
	to := strings.TrimSpace(notification.RecipientEmail)
	if to == "" {
		return permanent("recipient %s has no email address", notification.RecipientID)
	}

	subject, body := "", notification.PayloadJSON
	if input.Renderer != nil {
		subject, body = input.Renderer.RenderEmail(notification)
	}
	return input.Mailer.Send(ctx, Email{
		NotificationID: notification.ID,
		To:             to,
		Subject:        subject,
		Body:           body,
	})
}

// deliveryError wraps failures that must not be retried.
type deliveryError struct {
	reason string
}

func (e deliveryError) Error() string { return e.reason }

func permanent(format string, args ...any) error {
	return deliveryError{reason: fmt.Sprintf(format, args...)}
}
