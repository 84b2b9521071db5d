package echoServer

import (
	"net/http"

	authctrl "github.com/binkim00/rentex/app/echoServer/controller/auth"
	itemctrl "github.com/binkim00/rentex/app/echoServer/controller/item"
	penaltyctrl "github.com/binkim00/rentex/app/echoServer/controller/penalty"
	rentalctrl "github.com/binkim00/rentex/app/echoServer/controller/rental"
	"github.com/binkim00/rentex/model"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth    *authctrl.Controller
	Item    *itemctrl.Controller
	Rental  *rentalctrl.Controller
	Penalty *penaltyctrl.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// user_id / role extraction
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenObj := ctx.Get("user")
			if tokenObj == nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			tok, ok := tokenObj.(*jwt.Token)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			sub, ok := claims["sub"].(float64)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", int64(sub))
			if role, ok := claims["role"].(string); ok {
				ctx.Set("role", role)
			}
			return next(ctx)
		}
	})

	// Items
	auth.GET("/items", c.Item.List)
	auth.GET("/items/:id", c.Item.Detail)
	// Partner endpoints
	partner := auth.Group("", RequireRole(string(model.RolePartner), string(model.RoleAdmin)))
	partner.POST("/items", c.Item.Register)
	partner.GET("/items/mine", c.Item.Mine)
	partner.PUT("/items/:id", c.Item.Update)
	partner.DELETE("/items/:id", c.Item.Delete)

	// Rentals
	auth.POST("/rentals", c.Rental.Create)
	auth.GET("/rentals/my", c.Rental.MyHistory)
	auth.POST("/rentals/:id/return-request", c.Rental.RequestReturn)

	// Penalties (self service)
	auth.GET("/penalties/me", c.Penalty.My)

	// Admin
	admin := auth.Group("/admin", RequireRole(string(model.RoleAdmin)))
	admin.POST("/rentals/:id/approve", c.Rental.Approve)
	admin.POST("/rentals/:id/start", c.Rental.Start)
	admin.POST("/rentals/:id/return", c.Rental.CompleteReturn)
	admin.GET("/rentals/overdue", c.Rental.Overdue)

	admin.POST("/penalties/users/:id", c.Penalty.Grant)
	admin.DELETE("/penalties/entries/:id", c.Penalty.Revoke)
	admin.POST("/penalties/entries/:id/pay", c.Penalty.MarkPaid)
	admin.POST("/penalties/users/:id/reset", c.Penalty.Reset)
	admin.POST("/penalties/users/:id/reconcile", c.Penalty.Reconcile)
	admin.GET("/penalties/users/:id/entries", c.Penalty.Entries)
	admin.GET("/penalties/users/:id/summary", c.Penalty.Summary)
}
