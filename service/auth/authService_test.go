package authsvc

import (
	"context"
	"strings"
	"testing"

	"github.com/binkim00/rentex/model"
	userrepo "github.com/binkim00/rentex/repository/user"
	jwtutil "github.com/binkim00/rentex/util/jwt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type userFake struct {
	byEmail map[string]*model.User
	nextID  int64
}

func newUserFake() *userFake { return &userFake{byEmail: map[string]*model.User{}} }

func (f *userFake) Create(ctx context.Context, u *model.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return &pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "users_email_key",
		}
	}
	for _, x := range f.byEmail {
		if x.Nickname == u.Nickname {
			return &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "users_nickname_key",
			}
		}
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *userFake) ByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, userrepo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func registerReq() model.RegisterReq {
	return model.RegisterReq{
		Email:    "kim@example.com",
		Password: "secret1",
		Name:     "Kim",
		Nickname: "kim",
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := New(newUserFake(), testSecret)

	u, token, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	require.Equal(t, model.RoleUser, u.Role)
	require.NotEmpty(t, token)
	require.NotEqual(t, "secret1", u.PasswordHash)

	claims, err := jwtutil.ParseAuth("Bearer "+token, testSecret)
	require.NoError(t, err)
	require.Equal(t, float64(u.ID), claims["sub"])
	require.Equal(t, "USER", claims["role"])
}

func TestRegister_NormalizesEmailAndRole(t *testing.T) {
	ctx := context.Background()
	f := newUserFake()
	svc := New(f, testSecret)

	req := registerReq()
	req.Email = "  Kim@Example.COM "
	req.Role = "PARTNER"

	u, _, err := svc.Register(ctx, req)
	require.NoError(t, err)
	require.Equal(t, "kim@example.com", u.Email)
	require.Equal(t, model.RolePartner, u.Role)

	// nobody self-registers as admin
	req2 := registerReq()
	req2.Email = "other@example.com"
	req2.Nickname = "other"
	req2.Role = "ADMIN"
	u2, _, err := svc.Register(ctx, req2)
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, u2.Role)
}

func TestRegister_BadInput(t *testing.T) {
	ctx := context.Background()
	svc := New(newUserFake(), testSecret)

	for _, req := range []model.RegisterReq{
		{Email: "", Password: "secret1", Name: "Kim"},
		{Email: "kim@example.com", Password: "short", Name: "Kim"},
		{Email: "kim@example.com", Password: "secret1", Name: "   "},
	} {
		_, _, err := svc.Register(ctx, req)
		require.Equal(t, ErrBadInput, Code(err))
	}
}

func TestRegister_Duplicates(t *testing.T) {
	ctx := context.Background()
	svc := New(newUserFake(), testSecret)

	_, _, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, registerReq())
	require.Equal(t, ErrEmailTaken, Code(err))

	req := registerReq()
	req.Email = "second@example.com"
	_, _, err = svc.Register(ctx, req) // same nickname
	require.Equal(t, ErrNicknameTaken, Code(err))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newUserFake()
	svc := New(f, testSecret)

	_, _, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	u, token, err := svc.Login(ctx, model.LoginReq{Email: "KIM@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "kim@example.com", u.Email)
	require.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, model.LoginReq{Email: "kim@example.com", Password: "wrong"})
	require.Equal(t, ErrInvalidCreds, Code(err))

	// unknown email looks the same as a wrong password
	_, _, err = svc.Login(ctx, model.LoginReq{Email: "nobody@example.com", Password: "secret1"})
	require.Equal(t, ErrInvalidCreds, Code(err))

	_, _, err = svc.Login(ctx, model.LoginReq{Email: " ", Password: "secret1"})
	require.Equal(t, ErrBadInput, Code(err))
}

func TestMapDuplicateErr_MessageFallback(t *testing.T) {
	err := mapDuplicateErr(&pgconn.PgError{
		Code:    pgerrcode.UniqueViolation,
		Message: strings.ToUpper("duplicate key value violates unique constraint, email already used"),
	})
	require.Equal(t, ErrEmailTaken, Code(err))

	require.Nil(t, mapDuplicateErr(&pgconn.PgError{Code: pgerrcode.NotNullViolation}))
}
