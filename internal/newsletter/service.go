package newsletter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qyve/storefront/pkg/db"
	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/outbox"
	"github.com/qyve/storefront/pkg/outbox/payloads"
)

const emailConstraint = "email"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type SubscribeInput struct {
	Email  string
	Source string
}

type SubscriberDTO struct {
	ID        uuid.UUID              `json:"id"`
	Email     string                 `json:"email"`
	Status    enums.SubscriberStatus `json:"status"`
	Source    string                 `json:"source,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// SubscribeResult reports whether the call changed anything.
type SubscribeResult struct {
	Subscriber SubscriberDTO
	Created    bool
}

type Service interface {
	Subscribe(ctx context.Context, input SubscribeInput) (*SubscribeResult, error)
	Unsubscribe(ctx context.Context, email string) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	now    func() time.Time
}

func NewService(repo Repository, tx txRunner, emitter outbox.Emitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("newsletter repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, now: time.Now}, nil
}

// Subscribe creates or reactivates the subscriber and queues the welcome
// email. An already active subscriber is returned unchanged.
func (s *service) Subscribe(ctx context.Context, input SubscribeInput) (*SubscribeResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	source := strings.TrimSpace(input.Source)

	var result *SubscribeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByEmail(ctx, email)
		switch {
		case err == nil && existing.Status == enums.SubscriberStatusActive:
			result = &SubscribeResult{Subscriber: toDTO(existing)}
			return nil
		case err == nil:
			if err := repo.UpdateStatus(ctx, existing.ID, enums.SubscriberStatusActive, source); err != nil {
				return err
			}
			existing.Status = enums.SubscriberStatusActive
			if source != "" {
				existing.Source = source
			}
			result = &SubscribeResult{Subscriber: toDTO(existing), Created: true}
		case errors.Is(err, gorm.ErrRecordNotFound):
			subscriber := &models.NewsletterSubscriber{
				Email:  email,
				Status: enums.SubscriberStatusActive,
				Source: source,
			}
			if err := repo.Create(ctx, subscriber); err != nil {
				return err
			}
			result = &SubscribeResult{Subscriber: toDTO(subscriber), Created: true}
		default:
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNewsletterSubscribed,
			AggregateType: enums.AggregateSubscriber,
			AggregateID:   result.Subscriber.ID,
			Data: payloads.NewsletterSubscribedEvent{
				SubscriberID: result.Subscriber.ID,
				Email:        email,
				Source:       result.Subscriber.Source,
				SubscribedAt: s.now().UTC(),
			},
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			// A concurrent subscribe for the same address won.
			existing, findErr := s.repo.FindByEmail(ctx, email)
			if findErr == nil {
				return &SubscribeResult{Subscriber: toDTO(existing)}, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "subscribe to newsletter")
	}
	return result, nil
}

// Unsubscribe is a no-op for unknown addresses so the endpoint does not
// reveal who is subscribed.
func (s *service) Unsubscribe(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscriber")
	}
	if existing.Status == enums.SubscriberStatusUnsubscribed {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, existing.ID, enums.SubscriberStatusUnsubscribed, ""); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unsubscribe")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toDTO(subscriber *models.NewsletterSubscriber) SubscriberDTO {
	return SubscriberDTO{
		ID:        subscriber.ID,
		Email:     subscriber.Email,
		Status:    subscriber.Status,
		Source:    subscriber.Source,
		CreatedAt: subscriber.CreatedAt,
	}
}
