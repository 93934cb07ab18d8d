// Package memory implements the storefront stores in process memory.
//
// Checkout transactions are fully serialized: Begin takes an exclusive
// writer slot and works on a private copy of the data, which Commit
// publishes. Readers always see the last committed copy.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"storefront/pkg/cart"
	"storefront/pkg/catalog"
	"storefront/pkg/order"
)

// Op names a transaction step for fault injection.
type Op string

const (
	OpBegin          Op = "begin"
	OpLockCart       Op = "lock_cart"
	OpDecrementStock Op = "decrement_stock"
	OpInsertOrder    Op = "insert_order"
	OpInsertLines    Op = "insert_lines"
	OpInsertPayment  Op = "insert_payment"
	OpClearCart      Op = "clear_cart"
	OpCommit         Op = "commit"
)

type state struct {
	products map[int64]catalog.Product
	users    map[int64]string
	carts    map[int64]map[int64]int
	orders   map[int64]order.Order
	nextProd int64
	nextOrd  int64
}

func (s *state) clone() *state {
	c := &state{
		products: make(map[int64]catalog.Product, len(s.products)),
		users:    make(map[int64]string, len(s.users)),
		carts:    make(map[int64]map[int64]int, len(s.carts)),
		orders:   make(map[int64]order.Order, len(s.orders)),
		nextProd: s.nextProd,
		nextOrd:  s.nextOrd,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for u, lines := range s.carts {
		m := make(map[int64]int, len(lines))
		for p, q := range lines {
			m[p] = q
		}
		c.carts[u] = m
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	return c
}

// Repository is an in-memory catalog, cart and order store.
type Repository struct {
	writer chan struct{}

	mu    sync.RWMutex
	st    *state
	fault map[Op]error
	now   func() time.Time
}

// New creates an empty in-memory repository.
func New() *Repository {
	return &Repository{
		writer: make(chan struct{}, 1),
		st: &state{
			products: make(map[int64]catalog.Product),
			users:    make(map[int64]string),
			carts:    make(map[int64]map[int64]int),
			orders:   make(map[int64]order.Order),
		},
		fault: make(map[Op]error),
		now:   time.Now,
	}
}

// FailOn makes the next transaction step op return err. It is meant for
// tests exercising rollback.
func (r *Repository) FailOn(op Op, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fault[op] = err
}

func (r *Repository) injected(op Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.fault[op]
	delete(r.fault, op)
	return err
}

func (r *Repository) acquire(ctx context.Context) error {
	select {
	case r.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Repository) release() { <-r.writer }

// write applies fn to a copy of the committed state while holding the writer
// slot and publishes the copy if fn succeeds. Published states are never
// mutated.
func (r *Repository) write(ctx context.Context, fn func(*state) error) error {
	if err := r.acquire(ctx); err != nil {
		return err
	}
	defer r.release()
	next := r.read().clone()
	if err := fn(next); err != nil {
		return err
	}
	r.mu.Lock()
	r.st = next
	r.mu.Unlock()
	return nil
}

func (r *Repository) read() *state {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st
}

// AddUser registers a user name for order summaries.
func (r *Repository) AddUser(id int64, name string) {
	_ = r.write(context.Background(), func(s *state) error {
		s.users[id] = name
		return nil
	})
}

// CreateProduct stores p, assigning an id when p.ID is zero.
func (r *Repository) CreateProduct(ctx context.Context, p catalog.Product) (int64, error) {
	if p.Stock < 0 || p.Price.IsNegative() {
		return 0, fmt.Errorf("invalid product %q", p.Name)
	}
	p.Category = catalog.PrimaryCategory(p.Category)
	err := r.write(ctx, func(s *state) error {
		if p.ID == 0 {
			s.nextProd++
			p.ID = s.nextProd
		} else if p.ID > s.nextProd {
			s.nextProd = p.ID
		}
		s.products[p.ID] = p
		return nil
	})
	return p.ID, err
}

// SetPrice changes a product's catalog price.
func (r *Repository) SetPrice(ctx context.Context, id int64, price decimal.Decimal) error {
	return r.write(ctx, func(s *state) error {
		p, ok := s.products[id]
		if !ok {
			return catalog.ErrNotFound
		}
		p.Price = price
		s.products[id] = p
		return nil
	})
}

// GetProduct retrieves a product by ID.
func (r *Repository) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	p, ok := r.read().products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

// GetStock returns a product's stock.
func (r *Repository) GetStock(ctx context.Context, id int64) (int, error) {
	p, err := r.GetProduct(ctx, id)
	return p.Stock, err
}

// DecrementStock removes amount units if available.
func (r *Repository) DecrementStock(ctx context.Context, id int64, amount int) error {
	if amount <= 0 {
		return catalog.ErrInvalidQuantity
	}
	return r.write(ctx, func(s *state) error {
		return decrement(s, id, amount)
	})
}

func decrement(s *state, id int64, amount int) error {
	p, ok := s.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	if p.Stock < amount {
		return &catalog.InsufficientStockError{ProductID: id, Name: p.Name}
	}
	p.Stock -= amount
	s.products[id] = p
	return nil
}

// AdjustStock adds delta to stock unless the result would be negative.
func (r *Repository) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	var stock int
	err := r.write(ctx, func(s *state) error {
		p, ok := s.products[id]
		if !ok {
			return catalog.ErrNotFound
		}
		if p.Stock+delta < 0 {
			return &catalog.InsufficientStockError{ProductID: id, Name: p.Name}
		}
		p.Stock += delta
		s.products[id] = p
		stock = p.Stock
		return nil
	})
	return stock, err
}

// Items returns the user's cart lines joined with products.
func (r *Repository) Items(ctx context.Context, userID int64) ([]cart.Item, error) {
	s := r.read()
	lines := s.carts[userID]
	items := make([]cart.Item, 0, len(lines))
	for pid, qty := range lines {
		p := s.products[pid]
		items = append(items, cart.Item{ProductID: pid, Name: p.Name, Price: p.Price, ImageURL: p.ImageURL, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

// AddQuantity creates or increments a cart line.
func (r *Repository) AddQuantity(ctx context.Context, userID, productID int64, qty int) error {
	return r.write(ctx, func(s *state) error {
		if _, ok := s.products[productID]; !ok {
			return catalog.ErrNotFound
		}
		lines := s.carts[userID]
		if lines == nil {
			lines = make(map[int64]int)
			s.carts[userID] = lines
		}
		lines[productID] += qty
		return nil
	})
}

// SetQuantity overwrites an existing cart line's quantity.
func (r *Repository) SetQuantity(ctx context.Context, userID, productID int64, qty int) error {
	return r.write(ctx, func(s *state) error {
		if _, ok := s.carts[userID][productID]; ok {
			s.carts[userID][productID] = qty
		}
		return nil
	})
}

// Remove deletes a cart line.
func (r *Repository) Remove(ctx context.Context, userID, productID int64) error {
	return r.write(ctx, func(s *state) error {
		delete(s.carts[userID], productID)
		return nil
	})
}

// Get retrieves an order by ID.
func (r *Repository) Get(ctx context.Context, id int64) (order.Order, error) {
	o, ok := r.read().orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	o.Lines = append([]order.Line(nil), o.Lines...)
	return o, nil
}

// List returns order summaries, newest first.
func (r *Repository) List(ctx context.Context) ([]order.Summary, error) {
	s := r.read()
	out := make([]order.Summary, 0, len(s.orders))
	for _, o := range s.orders {
		items := make([]string, 0, len(o.Lines))
		for _, l := range o.Lines {
			items = append(items, fmt.Sprintf("%d x %s", l.Quantity, s.products[l.ProductID].Name))
		}
		out = append(out, order.Summary{
			ID:            o.ID,
			UserID:        o.UserID,
			UserName:      s.users[o.UserID],
			Total:         o.Total,
			Status:        o.Status,
			CreatedAt:     o.CreatedAt,
			Address:       o.Address,
			AltPhone:      o.AltPhone,
			PaymentMethod: o.Payment.Method,
			PaymentStatus: o.Payment.Status,
			Items:         strings.Join(items, ", "),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UpdateStatus sets an order's status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, st order.Status) error {
	return r.write(ctx, func(s *state) error {
		o, ok := s.orders[id]
		if !ok {
			return order.ErrNotFound
		}
		o.Status = st
		s.orders[id] = o
		return nil
	})
}

// UpdatePaymentStatus sets the status of an order's payment.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, st order.PaymentStatus) error {
	return r.write(ctx, func(s *state) error {
		o, ok := s.orders[id]
		if !ok || o.Payment.Method == "" {
			return order.ErrNotFound
		}
		o.Payment.Status = st
		s.orders[id] = o
		return nil
	})
}

// Begin opens a checkout transaction. It blocks until every earlier
// transaction has finished or ctx is done.
func (r *Repository) Begin(ctx context.Context) (order.Tx, error) {
	if err := r.injected(OpBegin); err != nil {
		return nil, err
	}
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	return &tx{r: r, st: r.read().clone()}, nil
}

type tx struct {
	r    *Repository
	st   *state
	done bool
}

func (t *tx) step(ctx context.Context, op Op) error {
	if t.done {
		return fmt.Errorf("memory: transaction already finished")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.r.injected(op)
}

func (t *tx) LockCart(ctx context.Context, userID int64) ([]order.CartLine, error) {
	if err := t.step(ctx, OpLockCart); err != nil {
		return nil, err
	}
	lines := make([]order.CartLine, 0, len(t.st.carts[userID]))
	for pid, qty := range t.st.carts[userID] {
		p, ok := t.st.products[pid]
		if !ok {
			continue
		}
		lines = append(lines, order.CartLine{ProductID: pid, Name: p.Name, Quantity: qty, Price: p.Price, Stock: p.Stock})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (t *tx) DecrementStock(ctx context.Context, productID int64, qty int) error {
	if err := t.step(ctx, OpDecrementStock); err != nil {
		return err
	}
	return decrement(t.st, productID, qty)
}

func (t *tx) InsertOrder(ctx context.Context, o *order.Order) error {
	if err := t.step(ctx, OpInsertOrder); err != nil {
		return err
	}
	t.st.nextOrd++
	o.ID = t.st.nextOrd
	o.CreatedAt = t.r.now().UTC()
	t.st.orders[o.ID] = *o
	return nil
}

func (t *tx) InsertLines(ctx context.Context, orderID int64, lines []order.Line) error {
	if err := t.step(ctx, OpInsertLines); err != nil {
		return err
	}
	o, ok := t.st.orders[orderID]
	if !ok {
		return order.ErrNotFound
	}
	o.Lines = append([]order.Line(nil), lines...)
	t.st.orders[orderID] = o
	return nil
}

func (t *tx) InsertPayment(ctx context.Context, p order.Payment) error {
	if err := t.step(ctx, OpInsertPayment); err != nil {
		return err
	}
	o, ok := t.st.orders[p.OrderID]
	if !ok {
		return order.ErrNotFound
	}
	if o.Payment.Method != "" {
		return fmt.Errorf("memory: payment for order %d already exists", p.OrderID)
	}
	o.Payment = p
	t.st.orders[p.OrderID] = o
	return nil
}

func (t *tx) ClearCart(ctx context.Context, userID int64, productIDs []int64) error {
	if err := t.step(ctx, OpClearCart); err != nil {
		return err
	}
	lines := t.st.carts[userID]
	for _, id := range productIDs {
		delete(lines, id)
	}
	if len(lines) == 0 {
		delete(t.st.carts, userID)
	}
	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return fmt.Errorf("memory: transaction already finished")
	}
	t.done = true
	defer t.r.release()
	if err := t.r.injected(OpCommit); err != nil {
		return err
	}
	t.r.mu.Lock()
	t.r.st = t.st
	t.r.mu.Unlock()
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.r.release()
	return nil
}
