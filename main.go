// Package main rentex API.
//
// @title           rentex API
// @version         1.0
// @description     rental marketplace (items, rentals, penalties, users).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/binkim00/rentex/app/echoServer"
	authctrl "github.com/binkim00/rentex/app/echoServer/controller/auth"
	itemctrl "github.com/binkim00/rentex/app/echoServer/controller/item"
	penaltyctrl "github.com/binkim00/rentex/app/echoServer/controller/penalty"
	rentalctrl "github.com/binkim00/rentex/app/echoServer/controller/rental"
	"github.com/binkim00/rentex/app/echoServer/validation"
	"github.com/binkim00/rentex/config"
	itemrepo "github.com/binkim00/rentex/repository/item"
	penaltyrepo "github.com/binkim00/rentex/repository/penalty"
	rentalrepo "github.com/binkim00/rentex/repository/rental"
	userrepo "github.com/binkim00/rentex/repository/user"
	webhookrepo "github.com/binkim00/rentex/repository/webhook"
	authsvc "github.com/binkim00/rentex/service/auth"
	itemsvc "github.com/binkim00/rentex/service/item"
	penaltysvc "github.com/binkim00/rentex/service/penalty"
	rentalsvc "github.com/binkim00/rentex/service/rental"
	"github.com/binkim00/rentex/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	ir := itemrepo.New(db)
	rr := rentalrepo.New(db)
	pr := penaltyrepo.New(db)

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	is := itemsvc.New(ir, ur)
	ps := penaltysvc.New(db, ur, pr)
	rs := rentalsvc.New(db, rr, ir)

	// overdue sweeper
	var hook webhookrepo.Repo
	if cfg.OverdueWebhook != "" {
		hook = webhookrepo.NewHTTP(cfg.OverdueWebhook)
	}
	sweeper := rentalsvc.NewSweeper(rr, ps, hook, log)
	go rentalsvc.RunSweeper(ctx, sweeper, cfg.OverdueSweep, log)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	itemC := &itemctrl.Controller{Svc: is, V: v, Log: log}
	rentalC := &rentalctrl.Controller{Svc: rs, V: v, Log: log}
	penaltyC := &penaltyctrl.Controller{Svc: ps, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:    authC,
		Item:    itemC,
		Rental:  rentalC,
		Penalty: penaltyC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
