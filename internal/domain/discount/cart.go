package discount

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discounts/internal/money"
)

// CartTotal returns the sum of UnitPrice * Quantity over all lines, rounded
// to two decimal places.
func CartTotal(lines []Line) decimal.Decimal {
	return money.Round2(subtotal(lines))
}

func subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// idSet is a membership set of product identifiers.
type idSet map[string]struct{}

func newIDSet(ids []string) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s idSet) has(id string) bool {
	_, ok := s[id]
	return ok
}

// productIDs lists the product ids of lines in cart order.
func productIDs(lines []Line) []string {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	return ids
}
