package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/nikolayk812/cart-checkout/internal/port"
)

// MemoryCart is an in-process CartRepository for local runs and tests. It
// keeps the same version and atomicity rules as the Postgres repository.
type MemoryCart struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
}

func NewMemoryCart() *MemoryCart {
	return &MemoryCart{carts: make(map[string]*domain.Cart)}
}

var _ port.CartRepository = (*MemoryCart)(nil)

func (r *MemoryCart) GetCart(_ context.Context, ownerID string) (domain.Cart, error) {
	if ownerID == "" {
		return domain.Cart{}, fmt.Errorf("ownerID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[ownerID]
	if !ok {
		return domain.Cart{OwnerID: ownerID}, nil
	}

	return cloneCart(*cart), nil
}

func (r *MemoryCart) CartVersion(_ context.Context, ownerID string) (int64, error) {
	if ownerID == "" {
		return 0, fmt.Errorf("ownerID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cart, ok := r.carts[ownerID]; ok {
		return cart.Version, nil
	}
	return 0, nil
}

func (r *MemoryCart) AddLine(_ context.Context, ownerID string, line domain.CartLine) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}
	if line.Quantity < 1 {
		return fmt.Errorf("quantity must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.ensure(ownerID)
	if i := indexOf(cart.Lines, line.Key()); i >= 0 {
		cart.Lines[i].Quantity += line.Quantity
	} else {
		line.CreatedAt = time.Now()
		cart.Lines = append(cart.Lines, line)
	}
	cart.Version++

	return nil
}

func (r *MemoryCart) SetQuantity(_ context.Context, ownerID string, key domain.LineKey, quantity int) (bool, error) {
	if ownerID == "" {
		return false, fmt.Errorf("ownerID is empty")
	}
	if quantity < 1 {
		return false, fmt.Errorf("quantity must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.ensure(ownerID)
	cart.Version++

	i := indexOf(cart.Lines, key)
	if i < 0 {
		return false, nil
	}
	cart.Lines[i].Quantity = quantity

	return true, nil
}

func (r *MemoryCart) RemoveLine(_ context.Context, ownerID string, key domain.LineKey) (bool, error) {
	if ownerID == "" {
		return false, fmt.Errorf("ownerID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.ensure(ownerID)
	cart.Version++

	i := indexOf(cart.Lines, key)
	if i < 0 {
		return false, nil
	}
	cart.Lines = slices.Delete(cart.Lines, i, i+1)

	return true, nil
}

func (r *MemoryCart) SetCoupon(_ context.Context, ownerID string, coupon domain.AppliedCoupon) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}
	if coupon.Code == "" {
		return fmt.Errorf("coupon code is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.ensure(ownerID)
	coupon.Categories = slices.Clone(coupon.Categories)
	cart.Coupon = &coupon
	cart.Version++

	return nil
}

func (r *MemoryCart) ClearCoupon(_ context.Context, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart := r.ensure(ownerID)
	cart.Coupon = nil
	cart.Version++

	return nil
}

func (r *MemoryCart) ApplyReconciliation(_ context.Context, ownerID string, expectedVersion int64, change domain.ReconciliationChange) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}
	if change.IsEmpty() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cart, ok := r.carts[ownerID]
	if !ok || cart.Version != expectedVersion {
		return fmt.Errorf("cart[%s]: %w", ownerID, port.ErrVersionConflict)
	}

	for _, line := range change.Refreshed {
		if i := indexOf(cart.Lines, line.Key()); i >= 0 {
			refreshed := cart.Lines[i]
			refreshed.Name = line.Name
			refreshed.UnitPrice = line.UnitPrice
			refreshed.Image = line.Image
			refreshed.Category = line.Category
			refreshed.Stock = line.Stock
			cart.Lines[i] = refreshed
		}
	}

	cart.Lines = slices.DeleteFunc(cart.Lines, func(l domain.CartLine) bool {
		return slices.Contains(change.Removed, l.Key())
	})

	if change.ClearCoupon {
		cart.Coupon = nil
	}

	return nil
}

func (r *MemoryCart) ensure(ownerID string) *domain.Cart {
	cart, ok := r.carts[ownerID]
	if !ok {
		cart = &domain.Cart{OwnerID: ownerID}
		r.carts[ownerID] = cart
	}
	return cart
}

func indexOf(lines []domain.CartLine, key domain.LineKey) int {
	return slices.IndexFunc(lines, func(l domain.CartLine) bool {
		return l.Key() == key
	})
}

func cloneCart(cart domain.Cart) domain.Cart {
	cart.Lines = slices.Clone(cart.Lines)
	if cart.Coupon != nil {
		coupon := *cart.Coupon
		coupon.Categories = slices.Clone(coupon.Categories)
		cart.Coupon = &coupon
	}
	return cart
}
