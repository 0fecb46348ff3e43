package discount

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discounts/internal/money"
)

// EvaluateProductWise computes a discount restricted to cart lines whose
// product id is in eligible.
//
// A percentage discount is taken from each eligible line subtotal. A fixed
// discount applies per unit, so a line of quantity 3 receives three times the
// amount. The summed discount never exceeds the cart total. Lines outside
// eligible are untouched. The coupon is not applicable when the summed discount is zero; Reason tells
// apart carts without any eligible product from eligible carts where the
// discount itself came out as zero.
func EvaluateProductWise(lines []Line, eligible []string, spec Spec) (Result, error) {
	if err := spec.validate(); err != nil {
		return Result{}, err
	}

	b := &ProductWiseBreakdown{
		DiscountKind:       spec.Kind,
		DiscountValue:      spec.Amount,
		EligibleProductIDs: eligible,
	}
	if len(lines) == 0 {
		return notApplicable(ReasonCartEmpty, "cart is empty", b), nil
	}

	allowed := newIDSet(eligible)
	total := decimal.Zero
	for i, l := range lines {
		if !allowed.has(l.ProductID) {
			continue
		}

		sub := l.Subtotal()
		var d decimal.Decimal
		switch spec.Kind {
		case KindPercentage:
			d = money.Percent(sub, spec.Amount)
		case KindFixedAmount:
			d = money.Line(spec.Amount, l.Quantity)
		}
		total = total.Add(d)

		b.Lines = append(b.Lines, ProductLine{
			LineIndex: i,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Subtotal:  money.Round2(sub),
			Discount:  money.Round2(d),
		})
	}

	if total.IsZero() {
		b.CartProductIDs = productIDs(lines)
		if len(b.Lines) == 0 {
			msg := fmt.Sprintf("no eligible products in cart: eligible [%s], cart has [%s]",
				strings.Join(eligible, ", "), strings.Join(b.CartProductIDs, ", "))
			return notApplicable(ReasonNoEligibleProducts, msg, b), nil
		}
		return notApplicable(ReasonZeroDiscount, "eligible products found but the discount is zero", b), nil
	}

	return Result{
		Applicable: true,
		Amount:     money.Round2(decimal.Min(total, CartTotal(lines))),
		Breakdown:  b,
	}, nil
}
