package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zingerhq/zinger/internal/model"
	"github.com/zingerhq/zinger/internal/store"
)

// Notifier fans a stored notification out to every push subscription the
// owning user has registered. Expired subscriptions are pruned as they are
// discovered; individual send failures are logged, never propagated.
type Notifier struct {
	service *Service
	subs    *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(service *Service, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{service: service, subs: subs, logger: logger}
}

// NotificationCreated pushes the notification to the user's browsers.
func (n *Notifier) NotificationCreated(notif *model.Notification) {
	subs, err := n.subs.ListByUser(notif.UserID)
	if err != nil {
		n.logger.Error("list push subscriptions", "user_id", notif.UserID, "error", err)
		return
	}

	payload := Payload{
		Title: payloadTitle(notif.Type),
		Body:  notif.Message,
		URL:   "/plans/" + notif.PlanID,
		Tag:   fmt.Sprintf("%s-%s-%s", notif.PlanID, notif.DedupDate, notif.Type),
	}

	for i := range subs {
		err := n.service.Send(&subs[i], payload)
		if errors.Is(err, ErrExpired) {
			if derr := n.subs.DeleteByEndpoint(subs[i].Endpoint); derr != nil {
				n.logger.Warn("prune expired subscription", "error", derr)
			}
			continue
		}
		if err != nil {
			n.logger.Warn("push send", "user_id", notif.UserID, "error", err)
		}
	}
}

func payloadTitle(notifType string) string {
	switch notifType {
	case model.NotifTypeWarning:
		return "Missed study tasks"
	case model.NotifTypeReminder:
		return "Tasks due today"
	default:
		return "Zinger update"
	}
}

func marshalPayload(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return data, nil
}
