package itemsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/binkim00/rentex/model"
	itemrepo "github.com/binkim00/rentex/repository/item"
	userrepo "github.com/binkim00/rentex/repository/user"
)

type ErrCode string

const (
	ErrNotFound   ErrCode = "NOT_FOUND"
	ErrBadInput   ErrCode = "BAD_INPUT"
	ErrNotPartner ErrCode = "NOT_PARTNER"
	ErrNotOwner   ErrCode = "NOT_OWNER"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type UserStore interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
}

type Service interface {
	Register(ctx context.Context, partnerID int64, it *model.Item) (*model.Item, error)
	Get(ctx context.Context, id int64) (*model.Item, error)
	List(ctx context.Context) ([]model.Item, error)
	ListByPartner(ctx context.Context, partnerID int64) ([]model.Item, error)
	Update(ctx context.Context, partnerID int64, it *model.Item) error
	Delete(ctx context.Context, partnerID, itemID int64) error
}

type service struct {
	r     itemrepo.Repo
	users UserStore
}

func New(r itemrepo.Repo, users UserStore) Service { return &service{r: r, users: users} }

func (s *service) Register(ctx context.Context, partnerID int64, it *model.Item) (*model.Item, error) {
	if strings.TrimSpace(it.Name) == "" || it.StockQuantity < 0 || it.DailyPrice < 0 {
		return nil, makeErr(ErrBadInput)
	}

	partner, err := s.users.ByID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, makeErr(ErrNotPartner)
		}
		return nil, err
	}
	if partner.Role != model.RolePartner {
		return nil, makeErr(ErrNotPartner)
	}

	it.PartnerID = partnerID
	if it.Status == "" {
		it.Status = model.ItemAvailable
	}
	if err := s.r.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) Get(ctx context.Context, id int64) (*model.Item, error) {
	it, err := s.r.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, itemrepo.ErrNotFound) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return it, nil
}

func (s *service) List(ctx context.Context) ([]model.Item, error) { return s.r.List(ctx) }

func (s *service) ListByPartner(ctx context.Context, partnerID int64) ([]model.Item, error) {
	return s.r.ListByPartner(ctx, partnerID)
}

func (s *service) Update(ctx context.Context, partnerID int64, it *model.Item) error {
	if strings.TrimSpace(it.Name) == "" || it.StockQuantity < 0 || it.DailyPrice < 0 {
		return makeErr(ErrBadInput)
	}

	cur, err := s.r.ByID(ctx, it.ID)
	if err != nil {
		if errors.Is(err, itemrepo.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if cur.PartnerID != partnerID {
		return makeErr(ErrNotOwner)
	}

	return s.r.Update(ctx, it)
}

func (s *service) Delete(ctx context.Context, partnerID, itemID int64) error {
	cur, err := s.r.ByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, itemrepo.ErrNotFound) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if cur.PartnerID != partnerID {
		return makeErr(ErrNotOwner)
	}
	return s.r.Delete(ctx, itemID)
}
