//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"listing-marketplace/internal/domain"
	"listing-marketplace/internal/domain/model"
	"listing-marketplace/internal/domain/ports/repository"
)

func TestPaymentOrderRepository(t *testing.T) {
	ctx := context.Background()
	ids := NewIdentityRepo(testPool, nil)
	repo := NewPaymentOrderRepo(testPool)

	t.Run("should move a pending order exactly once", func(t *testing.T) {
		cleanup(t)
		owner := seedIdentity(t, ids, "Payer", "p@example.com", "")
		o, err := model.NewPaymentOrder("ord_1", "order_gw_1", owner, model.OrderKindShopListing)
		if err != nil {
			t.Fatalf("NewPaymentOrder: %v", err)
		}
		if err := repo.Save(ctx, repository.NoTX, o); err != nil {
			t.Fatalf("Save: %v", err)
		}

		pending, err := repo.FindPending(ctx, repository.NoTX, "ord_1", model.OrderKindShopListing)
		if err != nil || pending.Amount != 2500 {
			t.Fatalf("expected the pending order, got %+v err=%v", pending, err)
		}
		if _, err := repo.FindPending(ctx, repository.NoTX, "ord_1", model.OrderKindServiceListing); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected kind mismatch to be not found, got %v", err)
		}

		payID := "pay_1"
		ok, err := repo.UpdateStatusIfPending(ctx, repository.NoTX, "ord_1", model.PaymentStatusCompleted, &payID)
		if err != nil || !ok {
			t.Fatalf("expected first transition, got ok=%v err=%v", ok, err)
		}
		ok, err = repo.UpdateStatusIfPending(ctx, repository.NoTX, "ord_1", model.PaymentStatusFailed, nil)
		if err != nil || ok {
			t.Fatalf("expected second transition to be refused, got ok=%v err=%v", ok, err)
		}

		got, _ := repo.FindByID(ctx, repository.NoTX, "ord_1")
		if got.Status != model.PaymentStatusCompleted || got.GatewayPaymentID == nil || *got.GatewayPaymentID != "pay_1" {
			t.Errorf("unexpected final order: %+v", got)
		}
		counts, err := repo.CountByStatus(ctx, repository.NoTX)
		if err != nil || counts[model.PaymentStatusCompleted] != 1 {
			t.Errorf("unexpected counts %v err=%v", counts, err)
		}
	})
}

func TestRecurringRepositories(t *testing.T) {
	ctx := context.Background()
	ids := NewIdentityRepo(testPool, nil)
	subs := NewSubscriptionRepo(testPool)
	payments := NewRecurringPaymentRepo(testPool)

	t.Run("should dedupe charges on subscription and payment id", func(t *testing.T) {
		cleanup(t)
		owner := seedIdentity(t, ids, "Sub", "sub@example.com", "")
		s, _ := model.NewRecurringSubscription(owner.ID, model.ProfileKindShop, "plan_shop", "sub_gw_1")
		if err := subs.Save(ctx, repository.NoTX, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
		now := time.Now().UTC().Truncate(time.Millisecond)
		s.Activate(now)
		if err := subs.Update(ctx, repository.NoTX, s); err != nil {
			t.Fatalf("Update: %v", err)
		}

		p := &model.RecurringPayment{ID: "rpay_1", IdentityID: owner.ID, SubscriptionID: s.ID, GatewayPaymentID: "pay_9",
			Amount: decimal.NewFromInt(25), ChargedAt: now, Status: model.RecurringPaymentStatusCaptured}
		inserted, err := payments.Insert(ctx, repository.NoTX, p)
		if err != nil || !inserted {
			t.Fatalf("expected insert, got %v err=%v", inserted, err)
		}
		p.ID = "rpay_2"
		inserted, err = payments.Insert(ctx, repository.NoTX, p)
		if err != nil || inserted {
			t.Fatalf("expected duplicate to be skipped, got %v err=%v", inserted, err)
		}

		rows, err := payments.ListBySubscription(ctx, repository.NoTX, s.ID)
		if err != nil || len(rows) != 1 || !rows[0].Amount.Equal(decimal.NewFromInt(25)) {
			t.Fatalf("unexpected payments %+v err=%v", rows, err)
		}

		got, err := subs.FindByGatewayID(ctx, repository.NoTX, "sub_gw_1")
		if err != nil || got.Status != model.SubscriptionStatusActive || got.ExpiresAt == nil {
			t.Fatalf("unexpected subscription %+v err=%v", got, err)
		}
		list, _ := subs.ListByIdentity(ctx, repository.NoTX, owner.ID)
		if len(list) != 1 {
			t.Errorf("expected 1 subscription, got %d", len(list))
		}
	})
}

func TestGoldTransactionRepository(t *testing.T) {
	ctx := context.Background()
	ids := NewIdentityRepo(testPool, nil)
	repo := NewGoldTransactionRepo(testPool)

	t.Run("should sum the signed log and page newest first", func(t *testing.T) {
		cleanup(t)
		owner := seedIdentity(t, ids, "Gold", "g@example.com", "")
		base := time.Now().UTC().Truncate(time.Millisecond)
		entries := []struct {
			kind   model.GoldKind
			amount int64
			src    model.GoldSource
		}{
			{model.GoldKindEarn, 10, model.GoldSourceRewardAd},
			{model.GoldKindEarn, 1, model.GoldSourceRewardAd},
			{model.GoldKindSpend, 2, model.GoldSourceUnlockPhone},
		}
		for i, e := range entries {
			tx, err := model.NewGoldTransaction(owner.ID, e.kind, e.amount, e.src, base.Add(time.Duration(i)*time.Second))
			if err != nil {
				t.Fatalf("NewGoldTransaction: %v", err)
			}
			if err := repo.Append(ctx, repository.NoTX, tx); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}

		sum, err := repo.Balance(ctx, repository.NoTX, owner.ID)
		if err != nil || sum != 9 {
			t.Fatalf("expected balance 9, got %d err=%v", sum, err)
		}
		page, total, err := repo.ListByIdentity(ctx, repository.NoTX, owner.ID, 0, 2)
		if err != nil || total != 3 || len(page) != 2 {
			t.Fatalf("unexpected page len=%d total=%d err=%v", len(page), total, err)
		}
		if page[0].Kind != model.GoldKindSpend {
			t.Errorf("expected newest entry first, got %+v", page[0])
		}
		empty, err := repo.Balance(ctx, repository.NoTX, "nobody")
		if err != nil || empty != 0 {
			t.Errorf("expected 0 for an empty log, got %d err=%v", empty, err)
		}
	})
}
