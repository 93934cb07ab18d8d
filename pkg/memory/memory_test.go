package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/pkg/catalog"
	"storefront/pkg/order"
)

func TestRepositoryLedger(t *testing.T) {
	ctx := context.Background()
	repo := New()
	id, err := repo.CreateProduct(ctx, catalog.Product{Name: "Widget", Price: decimal.RequireFromString("10.00"), Stock: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.DecrementStock(ctx, id, 2); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got, _ := repo.GetStock(ctx, id); got != 3 {
		t.Fatalf("expected stock 3, got %d", got)
	}
	if err := repo.DecrementStock(ctx, id, 4); !errors.Is(err, catalog.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if err := repo.DecrementStock(ctx, id, 0); !errors.Is(err, catalog.ErrInvalidQuantity) {
		t.Fatalf("expected invalid quantity, got %v", err)
	}
	if got, err := repo.AdjustStock(ctx, id, 7); err != nil || got != 10 {
		t.Fatalf("adjust: stock=%d err=%v", got, err)
	}
	if _, err := repo.AdjustStock(ctx, id, -11); !errors.Is(err, catalog.ErrInsufficientStock) {
		t.Fatalf("expected negative adjustment to fail, got %v", err)
	}
	if got, _ := repo.GetStock(ctx, id); got != 10 {
		t.Fatalf("failed adjustment changed stock to %d", got)
	}
	if _, err := repo.GetProduct(ctx, 99); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepositoryCart(t *testing.T) {
	ctx := context.Background()
	repo := New()
	id, _ := repo.CreateProduct(ctx, catalog.Product{Name: "Widget", Price: decimal.NewFromInt(3), Stock: 5})

	if err := repo.AddQuantity(ctx, 1, id, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := repo.AddQuantity(ctx, 1, id, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	items, _ := repo.Items(ctx, 1)
	if len(items) != 1 || items[0].Quantity != 3 || items[0].Name != "Widget" {
		t.Fatalf("unexpected cart: %+v", items)
	}
	if err := repo.SetQuantity(ctx, 1, id, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Remove(ctx, 1, id); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if items, _ := repo.Items(ctx, 1); len(items) != 0 {
		t.Fatalf("expected empty cart, got %+v", items)
	}
	if err := repo.AddQuantity(ctx, 1, 42, 1); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTxRollbackDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	repo := New()
	id, _ := repo.CreateProduct(ctx, catalog.Product{Name: "Widget", Price: decimal.NewFromInt(3), Stock: 5})
	_ = repo.AddQuantity(ctx, 1, id, 2)

	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.DecrementStock(ctx, id, 2); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	o := order.Order{UserID: 1, Status: order.StatusPending}
	if err := tx.InsertOrder(ctx, &o); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.ClearCart(ctx, 1, []int64{id}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if got, _ := repo.GetStock(ctx, id); got != 5 {
		t.Fatalf("rollback kept stock change: %d", got)
	}
	if items, _ := repo.Items(ctx, 1); len(items) != 1 {
		t.Fatalf("rollback cleared cart: %+v", items)
	}
	if _, err := repo.Get(ctx, o.ID); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("rollback kept order: %v", err)
	}
	// The writer slot must be free again.
	if _, err := repo.AdjustStock(ctx, id, 1); err != nil {
		t.Fatalf("adjust after rollback: %v", err)
	}
}

func TestBeginHonoursContext(t *testing.T) {
	repo := New()
	tx, err := repo.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.Begin(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := New()
	if err := repo.UpdateStatus(context.Background(), 1, order.StatusShipped); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.UpdatePaymentStatus(context.Background(), 1, order.PaymentComplete); !errors.Is(err, order.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClearCartRemovesOnlyGivenProducts(t *testing.T) {
	ctx := context.Background()
	repo := New()
	a, _ := repo.CreateProduct(ctx, catalog.Product{Name: "A", Price: decimal.NewFromInt(1), Stock: 5})
	b, _ := repo.CreateProduct(ctx, catalog.Product{Name: "B", Price: decimal.NewFromInt(1), Stock: 5})
	_ = repo.AddQuantity(ctx, 1, a, 1)
	_ = repo.AddQuantity(ctx, 1, b, 3)

	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.ClearCart(ctx, 1, []int64{a}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	items, _ := repo.Items(ctx, 1)
	if len(items) != 1 || items[0].ProductID != b || items[0].Quantity != 3 {
		t.Fatalf("unexpected cart after clear: %+v", items)
	}
}

func TestGetReturnsPrivateLines(t *testing.T) {
	ctx := context.Background()
	repo := New()
	tx, err := repo.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	o := order.Order{UserID: 1, Status: order.StatusPending}
	if err := tx.InsertOrder(ctx, &o); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.InsertLines(ctx, o.ID, []order.Line{{ProductID: 1, Quantity: 2, UnitPrice: decimal.NewFromInt(10)}}); err != nil {
		t.Fatalf("insert lines: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, _ := repo.Get(ctx, o.ID)
	got.Lines[0].UnitPrice = decimal.NewFromInt(99)

	again, _ := repo.Get(ctx, o.ID)
	if !again.Lines[0].UnitPrice.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("stored line price changed through Get: %s", again.Lines[0].UnitPrice)
	}
}

func TestCreateProductUsesPrimaryTag(t *testing.T) {
	ctx := context.Background()
	repo := New()
	id, err := repo.CreateProduct(ctx, catalog.Product{Name: "Watch", Price: decimal.NewFromInt(50), Stock: 1, Category: "#watches #electronics"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p, _ := repo.GetProduct(ctx, id)
	if p.Category != "watches" {
		t.Fatalf("category = %q, want watches", p.Category)
	}
}
