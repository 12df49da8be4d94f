package storage

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"kratzbaum/internal/model"
)

const tableSubscriptions = "subscriptions"

func (r repo) InsertSubscription(ctx context.Context, s model.Subscription) error {
	b := r.sb.Insert(tableSubscriptions).Columns(subscriptionColumns...).Values(
		s.ID, s.Channel, s.Endpoint, nullStr(s.P256dh), nullStr(s.Auth), ms(s.CreatedAt),
	)
	_, err := r.exec(ctx, b, "insert subscription", tableSubscriptions)
	return err
}

func (r repo) DeleteSubscription(ctx context.Context, endpoint string) error {
	b := r.sb.Delete(tableSubscriptions).Where(sq.Eq{"endpoint": endpoint})
	return r.execOne(ctx, b, "delete subscription", tableSubscriptions)
}

func (r repo) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	var rows []subscriptionRow
	b := r.sb.Select(subscriptionColumns...).From(tableSubscriptions).OrderBy("created_at ASC", "id ASC")
	if err := r.selectAll(ctx, &rows, b, "list subscriptions", tableSubscriptions); err != nil {
		return nil, err
	}
	out := make([]model.Subscription, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}
