package service

import (
	"context"
	"errors"
	"fmt"
	"kusheet-cart/internal/client"
	"kusheet-cart/internal/dto"
	"kusheet-cart/internal/model"
	"math"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DiscountResolver applies discounts validated by the remote authority to
// the cart it was validated against. The amount is never computed here.
type DiscountResolver struct {
	store    *CartStore
	client   client.DiscountClient
	notifier Notifier
	logger   *zap.Logger

	// held by the caller around every call and released for the remote
	// validation; nil when the caller does no locking
	locker sync.Locker

	state  model.DiscountState
	ticket uint64
}

func NewDiscountResolver(
	store *CartStore,
	discountClient client.DiscountClient,
	notifier Notifier,
	logger *zap.Logger,
	locker sync.Locker,
) *DiscountResolver {
	r := &DiscountResolver{
		store:    store,
		client:   discountClient,
		notifier: notifier,
		logger:   logger,
		locker:   locker,
	}
	store.OnChange(r.ClearDiscount)
	return r
}

// ApplyDiscount validates code remotely and stores the result. On any
// failure the previous discount stays in place.
//
// Only the latest apply can land: a response is dropped with
// ErrDiscountSuperseded when a newer apply or clear was issued, or when the
// cart changed, while it was in flight.
func (r *DiscountResolver) ApplyDiscount(ctx context.Context, code string) (model.DiscountState, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		r.notifier.Error(msgDiscountCodeRequired)
		return r.state, ErrDiscountCodeRequired
	}
	if r.store.IsCartEmpty() {
		r.notifier.Error(msgCartEmpty)
		return r.state, ErrCartEmpty
	}

	r.ticket++
	ticket := r.ticket
	version := r.store.Version()

	result, err := r.validate(ctx, code, r.cartLines())

	if version != r.store.Version() {
		r.logger.Info("dropping discount response for stale cart", zap.String("code", code))
		r.notifier.Info(msgDiscountStale)
		return r.state, ErrDiscountSuperseded
	}
	if ticket != r.ticket {
		r.logger.Info("dropping superseded discount response", zap.String("code", code))
		return r.state, ErrDiscountSuperseded
	}

	if err != nil {
		var rejected *client.RejectedError
		if errors.As(err, &rejected) {
			message := rejected.Message
			if message == "" {
				message = msgDiscountInvalid
			}
			r.notifier.Error(message)
		} else {
			r.logger.Error("discount validation failed", zap.String("code", code), zap.Error(err))
			r.notifier.Error(msgDiscountFailed)
		}
		return r.state, fmt.Errorf("apply discount %s: %w", code, err)
	}

	r.state = model.DiscountState{
		Code:   result.Code,
		Amount: result.Amount,
		Meta:   result.Meta,
	}
	r.notifier.Success(fmt.Sprintf("Discount code %s applied", result.Code))

	return r.state, nil
}

func (r *DiscountResolver) validate(ctx context.Context, code string, lines []*dto.Item) (*client.DiscountResult, error) {
	if r.locker != nil {
		r.locker.Unlock()
		defer r.locker.Lock()
	}
	return r.client.Validate(ctx, code, lines)
}

func (r *DiscountResolver) cartLines() []*dto.Item {
	items := r.store.GetCartItems()
	lines := make([]*dto.Item, len(items))
	for i, item := range items {
		lines[i] = &dto.Item{
			ID:       item.ID,
			Quantity: 1,
			Price:    item.Price,
		}
	}
	return lines
}

// ClearDiscount resets the discount and cancels any apply in flight.
func (r *DiscountResolver) ClearDiscount() {
	r.state = model.DiscountState{}
	r.ticket++
}

func (r *DiscountResolver) Info() model.DiscountState {
	return r.state
}

func (r *DiscountResolver) GetDiscount() float64 {
	return r.discount().InexactFloat64()
}

func (r *DiscountResolver) GetFinalTotal() float64 {
	final := r.store.totalDecimal().Sub(r.discount())
	if final.IsNegative() {
		return 0
	}
	return final.InexactFloat64()
}

func (r *DiscountResolver) discount() decimal.Decimal {
	amount := r.state.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(amount)
}
