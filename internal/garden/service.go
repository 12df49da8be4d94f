package garden

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"kratzbaum/internal/model"
	"kratzbaum/internal/reminder"
	"kratzbaum/internal/storage"
	logx "kratzbaum/pkg/logx"
)

type Service struct {
	store storage.Store
	rec   *reminder.Reconciler
	clock reminder.Clock
	log   logx.Logger
	newID func() string
}

func New(store storage.Store, rec *reminder.Reconciler, clock reminder.Clock, log logx.Logger) *Service {
	if clock == nil {
		clock = reminder.SystemClock{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		store: store,
		rec:   rec,
		clock: clock,
		log:   log.With(logx.String("comp", "garden")),
		newID: uuid.NewString,
	}
}

// tx runs fn in one transaction and announces its reminder changes after
// commit.
func (s *Service) tx(ctx context.Context, fn func(repo storage.Repo, now time.Time) ([]reminder.Change, error)) error {
	now := s.clock.Now()
	var changes []reminder.Change
	err := s.store.WithTx(ctx, func(repo storage.Repo) error {
		var err error
		changes, err = fn(repo, now)
		return err
	})
	if err != nil {
		return err
	}
	s.rec.Announce(changes...)
	return nil
}

// reconcile treats missing settings as a skip, not a failure.
func (s *Service) reconcile(ctx context.Context, repo storage.Repo, now time.Time, plantID string, types ...model.ReminderType) ([]reminder.Change, error) {
	out := make([]reminder.Change, 0, len(types))
	for _, t := range types {
		ch, err := s.rec.ReconcileTx(ctx, repo, now, plantID, t)
		if errors.Is(err, model.ErrPreconditionMissing) {
			s.log.Debug("reconcile skipped, settings missing", logx.String("plant_id", plantID))
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}
