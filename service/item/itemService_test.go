// service/item/item_service_test.go
package itemsvc_test

import (
	"context"
	"testing"

	"github.com/binkim00/rentex/model"
	itemrepo "github.com/binkim00/rentex/repository/item"
	userrepo "github.com/binkim00/rentex/repository/user"
	itemsvc "github.com/binkim00/rentex/service/item"
)

type repoMock struct {
	createFn func(ctx context.Context, it *model.Item) error
	byIDFn   func(ctx context.Context, id int64) (*model.Item, error)
	listFn   func(ctx context.Context) ([]model.Item, error)
	byPartFn func(ctx context.Context, partnerID int64) ([]model.Item, error)
	updateFn func(ctx context.Context, it *model.Item) error
	deleteFn func(ctx context.Context, id int64) error
}

func (m *repoMock) Create(ctx context.Context, it *model.Item) error { return m.createFn(ctx, it) }
func (m *repoMock) ByID(ctx context.Context, id int64) (*model.Item, error) {
	return m.byIDFn(ctx, id)
}
func (m *repoMock) List(ctx context.Context) ([]model.Item, error) { return m.listFn(ctx) }
func (m *repoMock) ListByPartner(ctx context.Context, partnerID int64) ([]model.Item, error) {
	return m.byPartFn(ctx, partnerID)
}
func (m *repoMock) Update(ctx context.Context, it *model.Item) error { return m.updateFn(ctx, it) }
func (m *repoMock) Delete(ctx context.Context, id int64) error       { return m.deleteFn(ctx, id) }

type usersMock struct {
	byIDFn func(ctx context.Context, id int64) (*model.User, error)
}

func (m *usersMock) ByID(ctx context.Context, id int64) (*model.User, error) {
	return m.byIDFn(ctx, id)
}

func partnerUsers(role model.Role) *usersMock {
	return &usersMock{byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
		return &model.User{ID: id, Role: role}, nil
	}}
}

func TestRegister_Validation(t *testing.T) {
	s := itemsvc.New(&repoMock{}, partnerUsers(model.RolePartner))
	ctx := context.Background()

	if _, err := s.Register(ctx, 1, &model.Item{Name: "  ", DailyPrice: 100}); itemsvc.Code(err) != itemsvc.ErrBadInput {
		t.Fatalf("blank name: got %v", err)
	}
	if _, err := s.Register(ctx, 1, &model.Item{Name: "tent", StockQuantity: -1}); itemsvc.Code(err) != itemsvc.ErrBadInput {
		t.Fatalf("negative stock: got %v", err)
	}
	if _, err := s.Register(ctx, 1, &model.Item{Name: "tent", DailyPrice: -5}); itemsvc.Code(err) != itemsvc.ErrBadInput {
		t.Fatalf("negative price: got %v", err)
	}
}

func TestRegister_PartnerChecks(t *testing.T) {
	ctx := context.Background()
	it := &model.Item{Name: "tent", DailyPrice: 100}

	s := itemsvc.New(&repoMock{}, partnerUsers(model.RoleUser))
	if _, err := s.Register(ctx, 1, it); itemsvc.Code(err) != itemsvc.ErrNotPartner {
		t.Fatalf("plain user: got %v", err)
	}

	s = itemsvc.New(&repoMock{}, &usersMock{byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
		return nil, userrepo.ErrNotFound
	}})
	if _, err := s.Register(ctx, 1, it); itemsvc.Code(err) != itemsvc.ErrNotPartner {
		t.Fatalf("unknown user: got %v", err)
	}
}

func TestRegister_Success(t *testing.T) {
	m := &repoMock{createFn: func(ctx context.Context, it *model.Item) error {
		it.ID = 7
		return nil
	}}
	s := itemsvc.New(m, partnerUsers(model.RolePartner))

	it, err := s.Register(context.Background(), 3, &model.Item{Name: "tent", DailyPrice: 100})
	if err != nil {
		t.Fatal(err)
	}
	if it.ID != 7 || it.PartnerID != 3 {
		t.Fatalf("got id=%d partner=%d; want 7 3", it.ID, it.PartnerID)
	}
	if it.Status != model.ItemAvailable {
		t.Fatalf("status not defaulted: %s", it.Status)
	}
}

func TestUpdateDelete_Ownership(t *testing.T) {
	ctx := context.Background()
	owned := func(ctx context.Context, id int64) (*model.Item, error) {
		return &model.Item{ID: id, Name: "tent", PartnerID: 3}, nil
	}

	updated := false
	m := &repoMock{
		byIDFn:   owned,
		updateFn: func(ctx context.Context, it *model.Item) error { updated = true; return nil },
		deleteFn: func(ctx context.Context, id int64) error { return nil },
	}
	s := itemsvc.New(m, partnerUsers(model.RolePartner))

	if err := s.Update(ctx, 9, &model.Item{ID: 1, Name: "tent"}); itemsvc.Code(err) != itemsvc.ErrNotOwner {
		t.Fatalf("update by stranger: got %v", err)
	}
	if err := s.Delete(ctx, 9, 1); itemsvc.Code(err) != itemsvc.ErrNotOwner {
		t.Fatalf("delete by stranger: got %v", err)
	}

	if err := s.Update(ctx, 3, &model.Item{ID: 1, Name: "bigger tent"}); err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Fatal("update never reached the repo")
	}
	if err := s.Delete(ctx, 3, 1); err != nil {
		t.Fatal(err)
	}
}

func TestGet_NotFound(t *testing.T) {
	m := &repoMock{byIDFn: func(ctx context.Context, id int64) (*model.Item, error) {
		return nil, itemrepo.ErrNotFound
	}}
	s := itemsvc.New(m, partnerUsers(model.RolePartner))
	if _, err := s.Get(context.Background(), 404); itemsvc.Code(err) != itemsvc.ErrNotFound {
		t.Fatalf("got %v", err)
	}
}
