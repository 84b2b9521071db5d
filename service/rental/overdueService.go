package rentalsvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/binkim00/rentex/model"
	webhookrepo "github.com/binkim00/rentex/repository/webhook"
)

// OverdueRepo is the slice of the rental store the sweeper needs.
type OverdueRepo interface {
	ListOverdue(ctx context.Context, today time.Time) ([]model.Rental, error)
	MarkOverdue(ctx context.Context, id int64) error
}

// PenaltyGranter lets the sweeper hand out points without depending on the
// whole penalty service.
type PenaltyGranter interface {
	Grant(ctx context.Context, userID int64, points int, reason string) (*model.PenaltyEntry, error)
}

type Sweeper interface {
	// SweepOverdue flags every overdue rental, grants a penalty point to the
	// renter, and notifies the configured webhook. Returns how many rentals
	// were flagged.
	SweepOverdue(ctx context.Context, today time.Time) (int, error)
}

type sweeper struct {
	r         OverdueRepo
	penalties PenaltyGranter
	hook      webhookrepo.Repo
	log       *slog.Logger
}

func NewSweeper(r OverdueRepo, p PenaltyGranter, hook webhookrepo.Repo, log *slog.Logger) Sweeper {
	return &sweeper{r: r, penalties: p, hook: hook, log: log}
}

const overdueReason = "overdue rental"

func (s *sweeper) SweepOverdue(ctx context.Context, today time.Time) (int, error) {
	rentals, err := s.r.ListOverdue(ctx, today)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, m := range rentals {
		if err := s.r.MarkOverdue(ctx, m.ID); err != nil {
			s.log.Error("mark overdue", "rental_id", m.ID, "err", err)
			continue
		}
		flagged++

		if _, err := s.penalties.Grant(ctx, m.UserID, 1, overdueReason); err != nil {
			s.log.Error("grant overdue penalty", "rental_id", m.ID, "user_id", m.UserID, "err", err)
		}

		if s.hook != nil {
			if err := s.hook.NotifyOverdue(ctx, webhookrepo.OverdueEvent{
				RentalID: m.ID,
				UserID:   m.UserID,
				ItemID:   m.ItemID,
				EndDate:  m.EndDate,
			}); err != nil {
				s.log.Warn("overdue webhook", "rental_id", m.ID, "err", err)
			}
		}
	}
	return flagged, nil
}

// RunSweeper drives SweepOverdue on a fixed interval until ctx is canceled.
// An immediate pass runs on start.
func RunSweeper(ctx context.Context, s Sweeper, every time.Duration, log *slog.Logger) {
	sweep := func() {
		n, err := s.SweepOverdue(ctx, time.Now().UTC().Truncate(24*time.Hour))
		if err != nil {
			log.Error("overdue sweep", "err", err)
			return
		}
		if n > 0 {
			log.Info("overdue sweep", "flagged", n)
		}
	}

	sweep()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sweep()
		}
	}
}
