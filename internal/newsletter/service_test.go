package newsletter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qyve/storefront/pkg/db"
	"github.com/qyve/storefront/pkg/db/dbtest"
	"github.com/qyve/storefront/pkg/db/models"
	"github.com/qyve/storefront/pkg/enums"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
	"github.com/qyve/storefront/pkg/outbox"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	return svc, conn
}

func welcomeEvents(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventNewsletterSubscribed).Count(&count).Error)
	return count
}

func TestSubscribeIsIdempotent(t *testing.T) {
	svc, conn := newTestService(t)

	first, err := svc.Subscribe(context.Background(), SubscribeInput{Email: "  Fan@Example.COM ", Source: "footer"})
	require.NoError(t, err)
	require.True(t, first.Created)
	require.Equal(t, "fan@example.com", first.Subscriber.Email)
	require.Equal(t, enums.SubscriberStatusActive, first.Subscriber.Status)

	second, err := svc.Subscribe(context.Background(), SubscribeInput{Email: "fan@example.com"})
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, first.Subscriber.ID, second.Subscriber.ID)

	require.EqualValues(t, 1, welcomeEvents(t, conn))
}

func TestUnsubscribeThenReactivate(t *testing.T) {
	svc, conn := newTestService(t)

	sub, err := svc.Subscribe(context.Background(), SubscribeInput{Email: "fan@example.com", Source: "footer"})
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(context.Background(), "FAN@example.com"))
	var stored models.NewsletterSubscriber
	require.NoError(t, conn.First(&stored, "id = ?", sub.Subscriber.ID).Error)
	require.Equal(t, enums.SubscriberStatusUnsubscribed, stored.Status)

	again, err := svc.Subscribe(context.Background(), SubscribeInput{Email: "fan@example.com", Source: "checkout"})
	require.NoError(t, err)
	require.True(t, again.Created)
	require.Equal(t, sub.Subscriber.ID, again.Subscriber.ID)
	require.Equal(t, "checkout", again.Subscriber.Source)
	require.EqualValues(t, 2, welcomeEvents(t, conn))
}

func TestUnsubscribeUnknownIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Unsubscribe(context.Background(), "nobody@example.com"))
}

func TestSubscribeRequiresEmail(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Subscribe(context.Background(), SubscribeInput{Email: "   "})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	err = svc.Unsubscribe(context.Background(), "")
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}
