package rentalsvc

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/binkim00/rentex/model"
	itemrepo "github.com/binkim00/rentex/repository/item"
	rentalrepo "github.com/binkim00/rentex/repository/rental"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// rentalFake keeps rentals in memory and mirrors the repository's inclusive
// overlap predicate.
type rentalFake struct {
	rentals map[int64]*model.Rental
	history []model.RentalHistory
	nextID  int64
}

func newRentalFake() *rentalFake {
	return &rentalFake{rentals: map[int64]*model.Rental{}}
}

func (f *rentalFake) add(m model.Rental) *model.Rental {
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now().UTC()
	f.rentals[m.ID] = &m
	return &m
}

func (f *rentalFake) Insert(ctx context.Context, tx *sql.Tx, m *model.Rental) error {
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Now().UTC()
	cp := *m
	f.rentals[m.ID] = &cp
	return nil
}

func (f *rentalFake) ByID(ctx context.Context, id int64) (*model.Rental, error) {
	m, ok := f.rentals[id]
	if !ok {
		return nil, rentalrepo.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *rentalFake) ByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Rental, error) {
	return f.ByID(ctx, id)
}

func (f *rentalFake) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status model.RentalStatus) error {
	f.rentals[id].Status = status
	return nil
}

func (f *rentalFake) SetReturned(ctx context.Context, tx *sql.Tx, id int64, returnedAt time.Time) error {
	m := f.rentals[id]
	m.Status = model.RentalReturned
	m.ActualReturnDate = &returnedAt
	return nil
}

func (f *rentalFake) InsertHistory(ctx context.Context, tx *sql.Tx, h *model.RentalHistory) error {
	h.ID = int64(len(f.history) + 1)
	f.history = append(f.history, *h)
	return nil
}

func (f *rentalFake) ExistsConflicting(ctx context.Context, itemID int64, start, end time.Time, statuses []model.RentalStatus) (bool, error) {
	in := func(s model.RentalStatus) bool {
		for _, x := range statuses {
			if x == s {
				return true
			}
		}
		return false
	}
	for _, m := range f.rentals {
		if m.ItemID != itemID || !in(m.Status) {
			continue
		}
		// both ends inclusive
		if !m.StartDate.After(end) && !m.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *rentalFake) ListOverdue(ctx context.Context, today time.Time) ([]model.Rental, error) {
	var out []model.Rental
	for _, m := range f.rentals {
		if m.Status == model.RentalRented && m.EndDate.Before(today) && !m.Overdue {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *rentalFake) MarkOverdue(ctx context.Context, id int64) error {
	f.rentals[id].Overdue = true
	return nil
}

func (f *rentalFake) ListByUser(ctx context.Context, userID int64) ([]HistoryRow, error) {
	var out []HistoryRow
	for _, m := range f.rentals {
		if m.UserID == userID {
			out = append(out, HistoryRow{
				RentalID:  m.ID,
				ItemID:    m.ItemID,
				Status:    m.Status,
				StartDate: m.StartDate,
				EndDate:   m.EndDate,
				Overdue:   m.Overdue,
				CreatedAt: m.CreatedAt,
			})
		}
	}
	return out, nil
}

type itemFake struct{ items map[int64]*model.Item }

func (f *itemFake) ByID(ctx context.Context, id int64) (*model.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, itemrepo.ErrNotFound
	}
	return it, nil
}

func newRentalTestService(t *testing.T, f *rentalFake, itemIDs ...int64) (Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)

	items := &itemFake{items: map[int64]*model.Item{}}
	for _, id := range itemIDs {
		items.items[id] = &model.Item{ID: id, Status: model.ItemAvailable}
	}
	return New(db, f, items), mock
}

func expectRentalTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func TestHasConflict_Boundaries(t *testing.T) {
	ctx := context.Background()
	f := newRentalFake()
	svc, _ := newRentalTestService(t, f, 1)

	f.add(model.Rental{UserID: 1, ItemID: 1, Status: model.RentalRented,
		StartDate: day("2024-01-10"), EndDate: day("2024-01-15")})

	cases := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"touching end date overlaps", "2024-01-15", "2024-01-20", true},
		{"day after is free", "2024-01-16", "2024-01-20", false},
		{"touching start date overlaps", "2024-01-05", "2024-01-10", true},
		{"fully inside overlaps", "2024-01-11", "2024-01-12", true},
		{"surrounding overlaps", "2024-01-01", "2024-01-31", true},
		{"before is free", "2024-01-01", "2024-01-09", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.HasConflict(ctx, 1, day(tc.start), day(tc.end), NarrowActiveSet)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestHasConflict_StatusSets(t *testing.T) {
	ctx := context.Background()
	f := newRentalFake()
	svc, _ := newRentalTestService(t, f, 1)

	start, end := day("2024-03-01"), day("2024-03-05")

	// a RETURNED rental never blocks anything
	f.add(model.Rental{ItemID: 1, Status: model.RentalReturned, StartDate: start, EndDate: end})

	got, err := svc.HasConflict(ctx, 1, start, end, BroadActiveSet)
	require.NoError(t, err)
	require.False(t, got)
	got, err = svc.HasConflict(ctx, 1, start, end, NarrowActiveSet)
	require.NoError(t, err)
	require.False(t, got)

	// a pending request blocks under the broad policy only
	f.add(model.Rental{ItemID: 1, Status: model.RentalRequested, StartDate: start, EndDate: end})

	got, err = svc.HasConflict(ctx, 1, start, end, BroadActiveSet)
	require.NoError(t, err)
	require.True(t, got)
	got, err = svc.HasConflict(ctx, 1, start, end, NarrowActiveSet)
	require.NoError(t, err)
	require.False(t, got)

	// RETURN_REQUESTED still holds the item under the narrow policy
	f.add(model.Rental{ItemID: 2, Status: model.RentalReturnRequested, StartDate: start, EndDate: end})
	svc2, _ := newRentalTestService(t, f, 2)
	got, err = svc2.HasConflict(ctx, 2, start, end, NarrowActiveSet)
	require.NoError(t, err)
	require.True(t, got)
}

func TestHasConflict_BadDates(t *testing.T) {
	svc, _ := newRentalTestService(t, newRentalFake(), 1)
	_, err := svc.HasConflict(context.Background(), 1, day("2024-01-10"), day("2024-01-05"), BroadActiveSet)
	require.Error(t, err)
	require.Equal(t, ErrBadDates, Code(err))
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	f := newRentalFake()
	svc, mock := newRentalTestService(t, f, 1)

	t.Run("bad dates", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, 1, day("2024-01-10"), day("2024-01-05"))
		require.Equal(t, ErrBadDates, Code(err))
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := svc.Create(ctx, 1, 42, day("2024-01-01"), day("2024-01-05"))
		require.Equal(t, ErrItemNotFound, Code(err))
	})

	t.Run("success writes history", func(t *testing.T) {
		expectRentalTx(mock)
		m, err := svc.Create(ctx, 1, 1, day("2024-01-01"), day("2024-01-05"))
		require.NoError(t, err)
		require.Equal(t, model.RentalRequested, m.Status)
		require.NotZero(t, m.ID)
		require.Len(t, f.history, 1)
		require.Equal(t, m.ID, f.history[0].RentalID)
		require.Equal(t, model.RentalRequested, f.history[0].Status)
	})

	t.Run("pending request blocks a second one", func(t *testing.T) {
		_, err := svc.Create(ctx, 2, 1, day("2024-01-05"), day("2024-01-07"))
		require.Equal(t, ErrConflict, Code(err))
	})

	t.Run("adjacent-after-boundary is free", func(t *testing.T) {
		expectRentalTx(mock)
		_, err := svc.Create(ctx, 2, 1, day("2024-01-06"), day("2024-01-08"))
		require.NoError(t, err)
	})
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newRentalFake()
	svc, mock := newRentalTestService(t, f, 1)

	expectRentalTx(mock)
	m, err := svc.Create(ctx, 1, 1, day("2024-02-01"), day("2024-02-05"))
	require.NoError(t, err)

	// cannot start before approval
	expectRentalTx(mock)
	err = svc.Start(ctx, m.ID)
	require.Equal(t, ErrWrongStatus, Code(err))

	expectRentalTx(mock)
	require.NoError(t, svc.Approve(ctx, m.ID))
	require.Equal(t, model.RentalApproved, f.rentals[m.ID].Status)

	// approving twice fails
	expectRentalTx(mock)
	err = svc.Approve(ctx, m.ID)
	require.Equal(t, ErrWrongStatus, Code(err))

	expectRentalTx(mock)
	require.NoError(t, svc.Start(ctx, m.ID))
	require.Equal(t, model.RentalRented, f.rentals[m.ID].Status)

	// only the renter may request the return
	expectRentalTx(mock)
	err = svc.RequestReturn(ctx, 999, m.ID)
	require.Equal(t, ErrNotOwner, Code(err))

	expectRentalTx(mock)
	require.NoError(t, svc.RequestReturn(ctx, 1, m.ID))
	require.Equal(t, model.RentalReturnRequested, f.rentals[m.ID].Status)

	expectRentalTx(mock)
	require.NoError(t, svc.CompleteReturn(ctx, m.ID))
	require.Equal(t, model.RentalReturned, f.rentals[m.ID].Status)
	require.NotNil(t, f.rentals[m.ID].ActualReturnDate)

	// one history row per transition
	require.Len(t, f.history, 5)

	expectRentalTx(mock)
	err = svc.Approve(ctx, 404)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestApprove_RecheckAgainstNarrowSet(t *testing.T) {
	ctx := context.Background()
	f := newRentalFake()
	svc, mock := newRentalTestService(t, f, 1)

	// two requests for overlapping dates both got created
	a := f.add(model.Rental{UserID: 1, ItemID: 1, Status: model.RentalRequested,
		StartDate: day("2024-02-01"), EndDate: day("2024-02-05")})
	b := f.add(model.Rental{UserID: 2, ItemID: 1, Status: model.RentalRequested,
		StartDate: day("2024-02-03"), EndDate: day("2024-02-07")})

	// the first approval goes through: the other request is only REQUESTED
	expectRentalTx(mock)
	require.NoError(t, svc.Approve(ctx, a.ID))

	// the second now collides with an APPROVED rental
	expectRentalTx(mock)
	err := svc.Approve(ctx, b.ID)
	require.Equal(t, ErrConflict, Code(err))
	require.Equal(t, model.RentalRequested, f.rentals[b.ID].Status)
}

func TestScanOverdue(t *testing.T) {
	ctx := context.Background()
	f := newRentalFake()
	svc, _ := newRentalTestService(t, f, 1)

	today := day("2024-05-10")

	late := f.add(model.Rental{UserID: 1, ItemID: 1, Status: model.RentalRented,
		StartDate: day("2024-05-01"), EndDate: day("2024-05-05")})
	// due today is not overdue yet
	f.add(model.Rental{UserID: 2, ItemID: 1, Status: model.RentalRented,
		StartDate: day("2024-05-06"), EndDate: day("2024-05-10")})
	// past dates but already returned
	f.add(model.Rental{UserID: 3, ItemID: 1, Status: model.RentalReturned,
		StartDate: day("2024-04-01"), EndDate: day("2024-04-05")})
	// already flagged
	flagged := f.add(model.Rental{UserID: 4, ItemID: 1, Status: model.RentalRented,
		StartDate: day("2024-04-01"), EndDate: day("2024-04-05")})
	f.rentals[flagged.ID].Overdue = true

	out, err := svc.ScanOverdue(ctx, today)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, late.ID, out[0].ID)
}
