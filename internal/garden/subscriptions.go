package garden

import (
	"context"
	"net/url"
	"strings"

	"kratzbaum/internal/model"
	"kratzbaum/internal/notifier"
	logx "kratzbaum/pkg/logx"
)

// Subscribe registers a notification target. Endpoints are unique.
func (s *Service) Subscribe(ctx context.Context, in SubscriptionInput) (model.Subscription, error) {
	in.Channel = strings.ToLower(strings.TrimSpace(in.Channel))
	in.Endpoint = strings.TrimSpace(in.Endpoint)
	if err := model.Validate(in); err != nil {
		return model.Subscription{}, err
	}
	switch in.Channel {
	case notifier.ChannelTelegram:
		if _, _, err := notifier.ParseChatEndpoint(in.Endpoint); err != nil {
			return model.Subscription{}, err
		}
	case notifier.ChannelWebhook:
		u, err := url.Parse(in.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return model.Subscription{}, model.Invalid("endpoint", "must be an http(s) URL")
		}
	}
	sub := model.Subscription{
		ID:        s.newID(),
		Channel:   in.Channel,
		Endpoint:  in.Endpoint,
		P256dh:    in.P256dh,
		Auth:      in.Auth,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.InsertSubscription(ctx, sub); err != nil {
		return model.Subscription{}, err
	}
	s.log.Info("subscribed", logx.String("channel", sub.Channel), logx.String("subscription_id", sub.ID))
	return sub, nil
}

func (s *Service) Unsubscribe(ctx context.Context, endpoint string) error {
	return s.store.DeleteSubscription(ctx, strings.TrimSpace(endpoint))
}

func (s *Service) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	return s.store.ListSubscriptions(ctx)
}
