package discount

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-discounts/internal/money"
)

var productPool = []string{"A", "B", "C", "D", "E", "F", "G"}

// randomCarts returns a deterministic set of non-empty carts.
func randomCarts(n int) [][]Line {
	r := rand.New(rand.NewPCG(42, 7))
	carts := make([][]Line, n)
	for i := range carts {
		lines := make([]Line, 1+r.IntN(6))
		for j := range lines {
			cents := r.IntN(50000)
			lines[j] = Line{
				ProductID: productPool[r.IntN(len(productPool))],
				UnitPrice: decimal.New(int64(cents), -2),
				Quantity:  1 + r.IntN(5),
			}
		}
		carts[i] = lines
	}
	return carts
}

func TestProperty_CartWiseMinimumGate(t *testing.T) {
	minimum := d("250")
	for i, lines := range randomCarts(200) {
		got, err := EvaluateCartWise(lines, CartWiseConfig{MinimumCartValue: &minimum}, Spec{Kind: KindPercentage, Amount: d("10")})
		require.NoError(t, err)

		total := subtotal(lines)
		assert.Equal(t, total.GreaterThanOrEqual(minimum), got.Applicable, "cart %d", i)
		if !got.Applicable {
			assert.True(t, got.Amount.IsZero(), "cart %d", i)
		}
	}
}

func TestProperty_CartWisePercentage(t *testing.T) {
	limit := d("40")
	pct := d("17.5")
	for i, lines := range randomCarts(200) {
		uncapped, err := EvaluateCartWise(lines, CartWiseConfig{}, Spec{Kind: KindPercentage, Amount: pct})
		require.NoError(t, err)
		want := money.Round2(money.Percent(subtotal(lines), pct))
		assert.True(t, want.Equal(uncapped.Amount), "cart %d: %s != %s", i, want, uncapped.Amount)
		assert.True(t, uncapped.Amount.LessThanOrEqual(CartTotal(lines)), "cart %d", i)

		capped, err := EvaluateCartWise(lines, CartWiseConfig{MaximumDiscount: &limit}, Spec{Kind: KindPercentage, Amount: pct})
		require.NoError(t, err)
		assert.True(t, capped.Amount.LessThanOrEqual(limit), "cart %d", i)
	}
}

func TestProperty_BxGy(t *testing.T) {
	configs := []BxGyConfig{
		{BuyQuantity: 2, GetQuantity: 1, BuyFrom: []string{"A", "B"}, GetFrom: []string{"D", "E", "F"}},
		{BuyQuantity: 3, GetQuantity: 2, BuyFrom: []string{"A", "C"}, GetFrom: []string{"E", "G"}, RepetitionLimit: 2},
		{BuyQuantity: 1, GetQuantity: 1, BuyFrom: []string{"B"}, GetFrom: []string{"A", "B", "C"}, RepetitionLimit: 1},
	}

	for ci, cfg := range configs {
		for i, lines := range randomCarts(200) {
			t.Run(fmt.Sprintf("cfg%d/cart%d", ci, i), func(t *testing.T) {
				got, err := EvaluateBxGy(lines, cfg)
				require.NoError(t, err)

				b, ok := got.Breakdown.(*BxGyBreakdown)
				require.True(t, ok)
				if !got.Applicable {
					assert.True(t, got.Amount.IsZero())
					return
				}

				assert.LessOrEqual(t, b.TimesApplied, b.BuyQuantityFound/cfg.BuyQuantity)
				if cfg.RepetitionLimit > 0 {
					assert.LessOrEqual(t, b.TimesApplied, cfg.RepetitionLimit)
				}
				assert.LessOrEqual(t, b.FreeItemsGiven, b.TimesApplied*cfg.GetQuantity)

				freed := make(map[int]int)
				sum := decimal.Zero
				for _, fl := range b.FreeLines {
					freed[fl.LineIndex] = fl.FreeQuantity
					assert.LessOrEqual(t, fl.FreeQuantity, lines[fl.LineIndex].Quantity)
					sum = sum.Add(money.Line(fl.UnitPrice, fl.FreeQuantity))
				}
				assert.True(t, money.Round2(sum).Equal(got.Amount))

				// No candidate unit stays paid while a cheaper one is free.
				get := newIDSet(cfg.GetFrom)
				for hi, h := range lines {
					if !get.has(h.ProductID) || freed[hi] == h.Quantity {
						continue
					}
					for lo, l := range lines {
						if freed[lo] > 0 && l.UnitPrice.LessThan(h.UnitPrice) {
							t.Fatalf("line %d (%s) freed while pricier line %d (%s) is not fully free",
								lo, l.UnitPrice, hi, h.UnitPrice)
						}
					}
				}
			})
		}
	}
}

func TestProperty_ProductWiseFixedWithinCartTotal(t *testing.T) {
	for i, lines := range randomCarts(200) {
		got, err := EvaluateProductWise(lines, []string{"A", "B"}, Spec{Kind: KindFixedAmount, Amount: d("120")})
		require.NoError(t, err)
		if !got.Applicable {
			continue
		}
		assert.True(t, got.Amount.LessThanOrEqual(money.Round2(subtotal(lines))), "cart %d", i)
	}
}
