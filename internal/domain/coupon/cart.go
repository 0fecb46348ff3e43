package coupon

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discounts/internal/domain/discount"
	"github.com/xenking/kart-discounts/internal/money"
)

// UpdatedCart is the cart after a coupon has been applied.
type UpdatedCart struct {
	Lines         []UpdatedLine
	TotalPrice    decimal.Decimal
	TotalDiscount decimal.Decimal
	FinalPrice    decimal.Decimal
}

// UpdatedLine is a cart line with the discount attributed to it. Cart-wise
// discounts are not attributed to lines.
type UpdatedLine struct {
	discount.Line
	Discount decimal.Decimal
}

// NewUpdatedCart projects res onto lines, keeping cart order.
func NewUpdatedCart(lines []discount.Line, res discount.Result) UpdatedCart {
	perLine := make([]decimal.Decimal, len(lines))
	for i := range perLine {
		perLine[i] = decimal.Zero
	}

	if res.Applicable {
		switch b := res.Breakdown.(type) {
		case *discount.ProductWiseBreakdown:
			for _, pl := range b.Lines {
				perLine[pl.LineIndex] = perLine[pl.LineIndex].Add(pl.Discount)
			}
		case *discount.BxGyBreakdown:
			for _, fl := range b.FreeLines {
				perLine[fl.LineIndex] = perLine[fl.LineIndex].Add(fl.Discount)
			}
		}
	}

	out := UpdatedCart{
		Lines:      make([]UpdatedLine, len(lines)),
		TotalPrice: discount.CartTotal(lines),
	}
	for i, l := range lines {
		out.Lines[i] = UpdatedLine{Line: l, Discount: money.Round2(perLine[i])}
	}

	out.TotalDiscount = decimal.Zero
	if res.Applicable {
		out.TotalDiscount = res.Amount
	}
	out.FinalPrice = money.Round2(money.FloorAtZero(out.TotalPrice.Sub(out.TotalDiscount)))
	return out
}
