package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	"github.com/dejobratic/foodorder/internal/orders/ports"
	"github.com/shopspring/decimal"
)

// CouponRecorder receives one call per evaluation.
type CouponRecorder interface {
	RecordCouponEvaluation(ctx context.Context, result string)
}

// CouponEvaluator resolves a code and runs the coupon rules. Live previews
// and checkout both go through Evaluate.
type CouponEvaluator struct {
	coupons  ports.CouponRepository
	now      func() time.Time
	recorder CouponRecorder
}

type EvaluatorOption func(*CouponEvaluator)

func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *CouponEvaluator) {
		e.now = now
	}
}

func WithRecorder(recorder CouponRecorder) EvaluatorOption {
	return func(e *CouponEvaluator) {
		e.recorder = recorder
	}
}

func NewCouponEvaluator(coupons ports.CouponRepository, opts ...EvaluatorOption) *CouponEvaluator {
	e := &CouponEvaluator{
		coupons: coupons,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the decision for code. Rejections are decisions, not
// errors; an error means the coupon store could not be read.
func (e *CouponEvaluator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal, zoneID, userID string) (domain.CouponDecision, error) {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return e.record(ctx, domain.RejectUnknownCoupon(code)), nil
	}

	coupon, err := e.coupons.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return e.record(ctx, domain.RejectUnknownCoupon(code)), nil
		}
		return domain.CouponDecision{}, fmt.Errorf("load coupon %s: %w", code, err)
	}

	check := domain.CouponCheck{
		Subtotal: subtotal,
		ZoneID:   zoneID,
		Now:      e.now(),
	}
	if coupon.MaxUsesPerUser != nil && userID != "" {
		used, err := e.coupons.CountCouponUsage(ctx, coupon.ID, userID)
		if err != nil {
			return domain.CouponDecision{}, fmt.Errorf("count usage of coupon %s: %w", code, err)
		}
		check.UserUses = used
	}

	return e.record(ctx, coupon.Evaluate(check)), nil
}

func (e *CouponEvaluator) record(ctx context.Context, decision domain.CouponDecision) domain.CouponDecision {
	if e.recorder != nil {
		result := "accepted"
		if decision.Rejection != "" {
			result = string(decision.Rejection)
		}
		e.recorder.RecordCouponEvaluation(ctx, result)
	}
	return decision
}
