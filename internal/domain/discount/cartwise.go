package discount

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discounts/internal/money"
)

func (c CartWiseConfig) validate() error {
	if c.MinimumCartValue != nil && c.MinimumCartValue.IsNegative() {
		return errors.Wrapf(ErrInvalidConfig, "minimum cart value %s is negative", c.MinimumCartValue)
	}
	if c.MaximumDiscount != nil && c.MaximumDiscount.IsNegative() {
		return errors.Wrapf(ErrInvalidConfig, "maximum discount %s is negative", c.MaximumDiscount)
	}
	return nil
}

// EvaluateCartWise computes a discount over the whole cart.
//
// The coupon applies when the cart total reaches cfg.MinimumCartValue. A
// percentage discount is taken from the cart total; a fixed discount is used
// verbatim but never exceeds the cart total. When cfg.MaximumDiscount is set
// the discount is clamped to it and the result stays applicable, even if the
// cap is zero.
func EvaluateCartWise(lines []Line, cfg CartWiseConfig, spec Spec) (Result, error) {
	if err := spec.validate(); err != nil {
		return Result{}, err
	}
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	if len(lines) == 0 {
		return notApplicable(ReasonCartEmpty, "cart is empty", nil), nil
	}

	total := subtotal(lines)
	minimum := decimal.Zero
	if cfg.MinimumCartValue != nil {
		minimum = *cfg.MinimumCartValue
	}

	b := &CartWiseBreakdown{
		CartTotal:        money.Round2(total),
		MinimumCartValue: minimum,
		DiscountKind:     spec.Kind,
		DiscountValue:    spec.Amount,
		MaximumDiscount:  cfg.MaximumDiscount,
	}

	if total.LessThan(minimum) {
		b.Shortfall = money.Round2(minimum.Sub(total))
		b.FinalCartTotal = b.CartTotal
		msg := fmt.Sprintf("cart total %s is below the minimum of %s: add %s more",
			b.CartTotal.StringFixed(2), minimum.StringFixed(2), b.Shortfall.StringFixed(2))
		return notApplicable(ReasonBelowMinimum, msg, b), nil
	}

	var raw decimal.Decimal
	switch spec.Kind {
	case KindPercentage:
		raw = money.Percent(total, spec.Amount)
	case KindFixedAmount:
		raw = decimal.Min(spec.Amount, total)
	}
	b.UncappedDiscount = money.Round2(raw)

	amount := raw
	res := Result{Applicable: true, Breakdown: b}
	if cfg.MaximumDiscount != nil && raw.GreaterThan(*cfg.MaximumDiscount) {
		amount = *cfg.MaximumDiscount
		b.Capped = true
		res.Reason = ReasonCapped
		res.Message = fmt.Sprintf("discount of %s capped at the maximum of %s",
			b.UncappedDiscount.StringFixed(2), money.Round2(amount).StringFixed(2))
	}

	res.Amount = money.Round2(amount)
	b.FinalCartTotal = money.Round2(money.FloorAtZero(total.Sub(res.Amount)))
	return res, nil
}
