package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"listing-marketplace/internal/config"
	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
	pg "listing-marketplace/internal/infra/db/postgres"
	"listing-marketplace/internal/infra/logging"
	"listing-marketplace/internal/usecase"
)

// seed creates a demo owner with one listed shop and one listed service provider so a
// local stack has something to browse. Running it twice changes nothing.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	tm := pg.NewTxManager(pool)
	identities := pg.NewIdentityRepo(pool, nil)
	profiles := pg.NewProfileRepo(pool)
	authUC := usecase.NewAuthUseCase(identities, tm, logger)
	profileUC := usecase.NewProfileUseCase(identities, profiles, nil, tm, logger)

	const email, password = "demo-owner@example.com", "demo-password"
	owner, err := authUC.Register(ctx, usecase.RegisterInput{
		Name:     "Demo Owner",
		Email:    email,
		Phone:    "9000000001",
		Password: password,
	})
	if errors.Is(err, domain.ErrConflict) {
		owner, err = authUC.Login(ctx, email, password)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("demo identity")
	}

	loc := model.Location{State: "Maharashtra", District: "Pune", City: "Pune", Pincode: "411001"}
	address := "FC Road"
	listings := []struct {
		kind model.ProfileKind
		in   usecase.ProfileInput
	}{
		{model.ProfileKindShop, usecase.ProfileInput{
			Name:     "Demo Hardware Store",
			Address:  &address,
			Location: loc,
			OpeningHours: map[string]model.OpeningHours{
				"monday": {Open: "09:00", Close: "20:00"},
				"sunday": {Open: "10:00", Close: "14:00"},
			},
		}},
		{model.ProfileKindService, usecase.ProfileInput{
			Name:            "Demo Plumbing",
			ServiceProvided: "Plumbing",
			Location:        loc,
		}},
	}

	now := time.Now()
	end := now.Add(model.SubscriptionPeriod)
	for _, l := range listings {
		p, err := profileUC.Mine(ctx, owner.ID, l.kind)
		if errors.Is(err, domain.ErrNotFound) {
			res, rerr := profileUC.Register(ctx, owner.ID, l.kind, l.in, nil)
			if rerr != nil {
				logger.Fatal().Err(rerr).Str("kind", string(l.kind)).Msg("register demo profile")
			}
			p, err = res.Profile, nil
		}
		if err != nil {
			logger.Fatal().Err(err).Str("kind", string(l.kind)).Msg("load demo profile")
		}
		if p.Window.Active(now) {
			fmt.Printf("%s profile %q already listed until %s\n", l.kind, p.Name, p.Window.EndAt.Format(time.DateOnly))
			continue
		}
		// Dev only: listings normally become visible through a verified payment.
		if err := profiles.UpdateWindow(ctx, repository.NoTX, l.kind, p.ID, &now, end); err != nil {
			logger.Fatal().Err(err).Msg("list demo profile")
		}
		fmt.Printf("seeded %s profile %q (id=%s) listed until %s\n", l.kind, p.Name, p.ID, end.Format(time.DateOnly))
	}
	fmt.Printf("login with %s / %s\n", email, password)
}
