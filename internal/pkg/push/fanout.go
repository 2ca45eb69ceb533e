package push

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/ManuelReschke/BookFox/app/models"
	"github.com/ManuelReschke/BookFox/internal/pkg/env"
	webpush "github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"
)

// Event types delivered to registered push endpoints.
const (
	EventBookingPaid     = "booking-paid"
	EventTeamRemoved     = "team-removed"
	EventNewNotification = "new-notification"
)

// Repository provides DB operations for stored push endpoints.
type Repository interface {
	ListByUser(userID uint) ([]models.PushSubscription, error)
	Upsert(sub *models.PushSubscription) error
	DeleteByEndpoint(endpoint string) error
}

type sendFunc func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Fanout delivers events to every push endpoint a user registered. Delivery
// is best effort: a dead endpoint gets pruned, any other failure is logged,
// and no outcome here ever propagates back into the caller's transaction.
type Fanout struct {
	repo            Repository
	vapidPublicKey  string
	vapidPrivateKey string
	subscriber      string
	ttl             int

	send sendFunc
}

// NewFanout creates a fanout from an injected repository and VAPID key pair.
func NewFanout(repo Repository, vapidPublicKey, vapidPrivateKey, subscriber string) *Fanout {
	return &Fanout{
		repo:            repo,
		vapidPublicKey:  vapidPublicKey,
		vapidPrivateKey: vapidPrivateKey,
		subscriber:      subscriber,
		ttl:             60,
		send:            webpush.SendNotification,
	}
}

// NewFanoutFromDB wires the production fanout from a GORM handle and the
// environment.
func NewFanoutFromDB(db *gorm.DB) *Fanout {
	return NewFanout(
		NewRepository(db),
		env.GetEnv("VAPID_PUBLIC_KEY", ""),
		env.GetEnv("VAPID_PRIVATE_KEY", ""),
		env.GetEnv("VAPID_SUBSCRIBER", "mailto:push@bookfox.app"),
	)
}

// Notify delivers the event to all of the user's endpoints without blocking
// the caller. Errors never surface; this path is not part of payment or
// entitlement correctness.
func (f *Fanout) Notify(ctx context.Context, userID uint, eventType string, payload map[string]any) {
	_ = ctx
	go func() {
		deliverCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		f.Deliver(deliverCtx, userID, eventType, payload)
	}()
}

// Deliver is the synchronous worker behind Notify. It returns delivery and
// prune counts for logging and tests.
func (f *Fanout) Deliver(ctx context.Context, userID uint, eventType string, payload map[string]any) (delivered, pruned int) {
	message, err := json.Marshal(map[string]any{
		"type": eventType,
		"data": payload,
	})
	if err != nil {
		log.Printf("push: cannot marshal %s event for user %d: %v", eventType, userID, err)
		return 0, 0
	}

	subs, err := f.repo.ListByUser(userID)
	if err != nil {
		log.Printf("push: cannot list endpoints for user %d: %v", userID, err)
		return 0, 0
	}

	for _, sub := range subs {
		if ctx.Err() != nil {
			return delivered, pruned
		}

		resp, err := f.send(message, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}, &webpush.Options{
			Subscriber:      f.subscriber,
			VAPIDPublicKey:  f.vapidPublicKey,
			VAPIDPrivateKey: f.vapidPrivateKey,
			TTL:             f.ttl,
		})
		if err != nil {
			// One endpoint failing must not stop delivery to the others.
			log.Printf("push: delivery to endpoint of user %d failed: %v", userID, err)
			continue
		}

		switch resp.StatusCode {
		case http.StatusGone, http.StatusNotFound:
			if err := f.repo.DeleteByEndpoint(sub.Endpoint); err != nil {
				log.Printf("push: cannot prune endpoint of user %d: %v", userID, err)
			} else {
				pruned++
			}
		default:
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				delivered++
			} else {
				log.Printf("push: endpoint of user %d answered status %d", userID, resp.StatusCode)
			}
		}
		resp.Body.Close()
	}
	return delivered, pruned
}

// Subscribe stores or refreshes a push endpoint for the user.
func (f *Fanout) Subscribe(userID uint, endpoint, p256dh, auth, userAgent string) error {
	return f.repo.Upsert(&models.PushSubscription{
		UserID:    userID,
		Endpoint:  endpoint,
		P256dh:    p256dh,
		Auth:      auth,
		UserAgent: userAgent,
	})
}

// Unsubscribe drops a push endpoint.
func (f *Fanout) Unsubscribe(endpoint string) error {
	return f.repo.DeleteByEndpoint(endpoint)
}
