package discount

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discounts/internal/money"
)

func (c BxGyConfig) validate() error {
	if c.BuyQuantity <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "buy quantity must be positive, got %d", c.BuyQuantity)
	}
	if c.GetQuantity <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "get quantity must be positive, got %d", c.GetQuantity)
	}
	if c.RepetitionLimit < 0 {
		return errors.Wrapf(ErrInvalidConfig, "repetition limit must not be negative, got %d", c.RepetitionLimit)
	}
	return nil
}

// EvaluateBxGy applies a "buy N get M free" rule.
//
// Units of products in cfg.BuyFrom are counted; every full cfg.BuyQuantity
// fires the rule once, up to cfg.RepetitionLimit. Each firing frees
// cfg.GetQuantity units of products in cfg.GetFrom, chosen greedily from the
// most expensive candidate lines first. Candidates of equal price keep cart
// order. A line never yields more free units than its quantity, and when the
// candidates run out the result stays applicable with whatever was freed.
func EvaluateBxGy(lines []Line, cfg BxGyConfig) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	b := &BxGyBreakdown{
		BuyQuantityRequired:       cfg.BuyQuantity,
		GetQuantityPerApplication: cfg.GetQuantity,
		RepetitionLimit:           cfg.RepetitionLimit,
	}
	if len(lines) == 0 {
		return notApplicable(ReasonCartEmpty, "cart is empty", b), nil
	}

	buy := newIDSet(cfg.BuyFrom)
	for i, l := range lines {
		if !buy.has(l.ProductID) {
			continue
		}
		b.BuyQuantityFound += l.Quantity
		b.BuyLines = append(b.BuyLines, BuyLine{LineIndex: i, ProductID: l.ProductID, Quantity: l.Quantity})
	}
	if b.BuyQuantityFound < cfg.BuyQuantity {
		msg := fmt.Sprintf("insufficient buy quantity: need %d, found %d", cfg.BuyQuantity, b.BuyQuantityFound)
		return notApplicable(ReasonInsufficientBuyQuantity, msg, b), nil
	}

	b.TimesApplicable = b.BuyQuantityFound / cfg.BuyQuantity
	b.TimesApplied = b.TimesApplicable
	if cfg.RepetitionLimit > 0 {
		b.TimesApplied = min(b.TimesApplicable, cfg.RepetitionLimit)
	}

	candidates := freeCandidates(lines, newIDSet(cfg.GetFrom))
	if len(candidates) == 0 {
		return notApplicable(ReasonNoFreeCandidates, "buy condition met but no eligible free items are in the cart", b), nil
	}

	// Saturate instead of overflowing for huge get quantities.
	remaining := math.MaxInt
	if b.TimesApplied <= math.MaxInt/cfg.GetQuantity {
		remaining = b.TimesApplied * cfg.GetQuantity
	}
	total := decimal.Zero
	for _, idx := range candidates {
		if remaining == 0 {
			break
		}
		l := lines[idx]
		free := min(l.Quantity, remaining)
		if free <= 0 {
			continue
		}
		d := money.Line(l.UnitPrice, free)
		total = total.Add(d)
		remaining -= free
		b.FreeItemsGiven += free
		b.FreeLines = append(b.FreeLines, FreeLine{
			LineIndex:    idx,
			ProductID:    l.ProductID,
			FreeQuantity: free,
			UnitPrice:    l.UnitPrice,
			Discount:     money.Round2(d),
		})
	}

	return Result{
		Applicable: true,
		Amount:     money.Round2(total),
		Breakdown:  b,
	}, nil
}

// freeCandidates returns indexes of lines eligible to become free, ordered by
// unit price descending. The sort is stable and works on a copy, so equal
// prices keep cart order and lines itself is never reordered.
func freeCandidates(lines []Line, get idSet) []int {
	var idx []int
	for i, l := range lines {
		if get.has(l.ProductID) {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return lines[b].UnitPrice.Cmp(lines[a].UnitPrice)
	})
	return idx
}
