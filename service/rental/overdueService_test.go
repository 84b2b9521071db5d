package rentalsvc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/binkim00/rentex/model"
	webhookrepo "github.com/binkim00/rentex/repository/webhook"

	"github.com/stretchr/testify/require"
)

type granterFake struct {
	grants []struct {
		userID int64
		points int
		reason string
	}
	err error
}

func (f *granterFake) Grant(ctx context.Context, userID int64, points int, reason string) (*model.PenaltyEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.grants = append(f.grants, struct {
		userID int64
		points int
		reason string
	}{userID, points, reason})
	return &model.PenaltyEntry{UserID: userID, Point: points, Reason: reason}, nil
}

type hookFake struct {
	events []webhookrepo.OverdueEvent
	err    error
}

func (f *hookFake) NotifyOverdue(ctx context.Context, ev webhookrepo.OverdueEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func discardLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSweepOverdue(t *testing.T) {
	ctx := context.Background()
	f := newRentalFake()
	today := day("2024-05-10")

	late1 := f.add(model.Rental{UserID: 1, ItemID: 10, Status: model.RentalRented,
		StartDate: day("2024-05-01"), EndDate: day("2024-05-05")})
	late2 := f.add(model.Rental{UserID: 2, ItemID: 11, Status: model.RentalRented,
		StartDate: day("2024-05-02"), EndDate: day("2024-05-09")})
	onTime := f.add(model.Rental{UserID: 3, ItemID: 12, Status: model.RentalRented,
		StartDate: day("2024-05-06"), EndDate: day("2024-05-10")})

	g := &granterFake{}
	hook := &hookFake{}
	s := NewSweeper(f, g, hook, discardLog())

	n, err := s.SweepOverdue(ctx, today)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.True(t, f.rentals[late1.ID].Overdue)
	require.True(t, f.rentals[late2.ID].Overdue)
	require.False(t, f.rentals[onTime.ID].Overdue)

	require.Len(t, g.grants, 2)
	for _, gr := range g.grants {
		require.Equal(t, 1, gr.points)
		require.Equal(t, "overdue rental", gr.reason)
	}

	require.Len(t, hook.events, 2)

	// a second pass finds nothing new
	n, err = s.SweepOverdue(ctx, today)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Len(t, g.grants, 2)
}

func TestSweepOverdue_KeepsGoingOnGrantError(t *testing.T) {
	ctx := context.Background()
	f := newRentalFake()

	a := f.add(model.Rental{UserID: 1, ItemID: 10, Status: model.RentalRented,
		StartDate: day("2024-05-01"), EndDate: day("2024-05-05")})
	b := f.add(model.Rental{UserID: 2, ItemID: 11, Status: model.RentalRented,
		StartDate: day("2024-05-01"), EndDate: day("2024-05-05")})

	g := &granterFake{err: errors.New("penalty store down")}
	s := NewSweeper(f, g, nil, discardLog())

	// grant failures are logged, not fatal; rentals still get flagged
	n, err := s.SweepOverdue(ctx, day("2024-05-10"))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.True(t, f.rentals[a.ID].Overdue)
	require.True(t, f.rentals[b.ID].Overdue)
}

func TestSweepOverdue_NilHook(t *testing.T) {
	f := newRentalFake()
	f.add(model.Rental{UserID: 1, ItemID: 10, Status: model.RentalRented,
		StartDate: day("2024-05-01"), EndDate: day("2024-05-05")})

	s := NewSweeper(f, &granterFake{}, nil, discardLog())
	n, err := s.SweepOverdue(context.Background(), day("2024-05-10"))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
