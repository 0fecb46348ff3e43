// Package discount computes coupon eligibility and discount amounts for a
// cart. Every evaluator is a pure function of its arguments: it never mutates
// the cart, holds no state between calls and performs no I/O, so it is safe
// for concurrent use.
//
// Business outcomes such as "cart below minimum" are returned as a Result
// with Applicable set to false. Errors are reserved for malformed
// configuration and wrap ErrInvalidConfig or ErrUnknownDiscountKind.
package discount

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discounts/internal/money"
)

// Kind enumerates how a discount amount is interpreted.
type Kind string

const (
	// KindPercentage applies Amount/100 of a base value.
	KindPercentage Kind = "percentage"
	// KindFixedAmount applies Amount as an absolute currency value.
	KindFixedAmount Kind = "fixed_amount"
)

var (
	// ErrUnknownDiscountKind is returned when a Spec carries a kind other than
	// KindPercentage or KindFixedAmount.
	ErrUnknownDiscountKind = errors.New("unknown discount kind")
	// ErrInvalidConfig is returned when a coupon configuration violates its
	// contract, e.g. a negative amount or a non-positive buy quantity.
	ErrInvalidConfig = errors.New("invalid discount configuration")
)

// Line is a single cart line item.
type Line struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns UnitPrice * Quantity, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return money.Line(l.UnitPrice, l.Quantity)
}

// Spec describes the discount a coupon grants.
type Spec struct {
	Kind   Kind
	Amount decimal.Decimal
}

func (s Spec) validate() error {
	switch s.Kind {
	case KindPercentage, KindFixedAmount:
	default:
		return errors.Wrapf(ErrUnknownDiscountKind, "%q", s.Kind)
	}
	if s.Amount.IsNegative() {
		return errors.Wrapf(ErrInvalidConfig, "discount amount %s is negative", s.Amount)
	}
	return nil
}

// CartWiseConfig gates a whole-cart discount. Nil fields are absent.
type CartWiseConfig struct {
	MinimumCartValue *decimal.Decimal
	MaximumDiscount  *decimal.Decimal
}

// BxGyConfig describes a "buy BuyQuantity get GetQuantity free" rule.
// RepetitionLimit of zero means the rule may fire as often as the cart allows.
type BxGyConfig struct {
	BuyQuantity     int
	GetQuantity     int
	BuyFrom         []string
	GetFrom         []string
	RepetitionLimit int
}

// Reason is a machine-readable explanation attached to a Result.
type Reason string

const (
	ReasonCartEmpty               Reason = "cart_empty"
	ReasonBelowMinimum            Reason = "below_minimum"
	ReasonNoEligibleProducts      Reason = "no_eligible_products"
	ReasonZeroDiscount            Reason = "zero_discount"
	ReasonInsufficientBuyQuantity Reason = "insufficient_buy_quantity"
	ReasonNoFreeCandidates        Reason = "no_free_candidates"
	// ReasonCapped is informational: the result is applicable but the
	// discount was clamped to the configured maximum.
	ReasonCapped Reason = "capped"
)

// Result is the outcome of one evaluation. Amount is rounded to two decimal
// places and is zero whenever Applicable is false.
type Result struct {
	Applicable bool
	Amount     decimal.Decimal
	Reason     Reason
	Message    string
	Breakdown  Breakdown
}

func notApplicable(reason Reason, msg string, b Breakdown) Result {
	return Result{
		Applicable: false,
		Amount:     decimal.Zero,
		Reason:     reason,
		Message:    msg,
		Breakdown:  b,
	}
}

// Breakdown is the audit detail of a Result. It is one of
// *CartWiseBreakdown, *ProductWiseBreakdown or *BxGyBreakdown.
type Breakdown interface {
	breakdown()
}

// CartWiseBreakdown details a cart-wise evaluation.
type CartWiseBreakdown struct {
	CartTotal        decimal.Decimal
	MinimumCartValue decimal.Decimal
	// Shortfall is set when the cart total is below the minimum.
	Shortfall     decimal.Decimal
	DiscountKind  Kind
	DiscountValue decimal.Decimal
	// UncappedDiscount is the discount before MaximumDiscount was applied.
	UncappedDiscount decimal.Decimal
	MaximumDiscount  *decimal.Decimal
	Capped           bool
	FinalCartTotal   decimal.Decimal
}

// ProductWiseBreakdown details a product-wise evaluation.
type ProductWiseBreakdown struct {
	DiscountKind       Kind
	DiscountValue      decimal.Decimal
	EligibleProductIDs []string
	// CartProductIDs is set on not-applicable results for diagnosis.
	CartProductIDs []string
	Lines          []ProductLine
}

// ProductLine is the discount granted on one eligible cart line.
type ProductLine struct {
	// LineIndex is the position of the line in the evaluated cart.
	LineIndex int
	ProductID string
	Quantity  int
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
}

// BxGyBreakdown details a buy-X-get-Y evaluation.
type BxGyBreakdown struct {
	BuyQuantityRequired       int
	BuyQuantityFound          int
	GetQuantityPerApplication int
	TimesApplicable           int
	// RepetitionLimit is zero when the rule has no limit.
	RepetitionLimit int
	TimesApplied    int
	FreeItemsGiven  int
	BuyLines        []BuyLine
	FreeLines       []FreeLine
}

// BuyLine is a cart line counted towards the buy condition.
type BuyLine struct {
	LineIndex int
	ProductID string
	Quantity  int
}

// FreeLine records the units of one cart line that became free.
type FreeLine struct {
	LineIndex    int
	ProductID    string
	FreeQuantity int
	UnitPrice    decimal.Decimal
	Discount     decimal.Decimal
}

func (*CartWiseBreakdown) breakdown()    {}
func (*ProductWiseBreakdown) breakdown() {}
func (*BxGyBreakdown) breakdown()        {}
