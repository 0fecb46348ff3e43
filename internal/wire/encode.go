package wire

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discounts/internal/domain/coupon"
	"github.com/xenking/kart-discounts/internal/domain/discount"
)

// Encode runs f on a pooled encoder and returns a copy of the output.
func Encode(f func(e *jx.Encoder)) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	f(e)
	return append([]byte(nil), e.Bytes()...)
}

// EncodeError writes the error body {"code", "message"}.
func EncodeError(e *jx.Encoder, code int, msg string) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
}

// EncodeResult writes an evaluation result with its breakdown.
func EncodeResult(e *jx.Encoder, r discount.Result) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("applicable", func(e *jx.Encoder) { e.Bool(r.Applicable) })
		e.Field("discount_amount", func(e *jx.Encoder) { money(e, r.Amount) })
		if r.Reason != "" {
			e.Field("reason", func(e *jx.Encoder) { e.Str(string(r.Reason)) })
		}
		if r.Message != "" {
			e.Field("message", func(e *jx.Encoder) { e.Str(r.Message) })
		}
		if r.Breakdown != nil {
			e.Field("breakdown", func(e *jx.Encoder) { encodeBreakdown(e, r.Breakdown) })
		}
	})
}

func encodeBreakdown(e *jx.Encoder, b discount.Breakdown) {
	switch b := b.(type) {
	case *discount.CartWiseBreakdown:
		encodeCartWise(e, b)
	case *discount.ProductWiseBreakdown:
		encodeProductWise(e, b)
	case *discount.BxGyBreakdown:
		encodeBxGy(e, b)
	default:
		e.Null()
	}
}

func encodeCartWise(e *jx.Encoder, b *discount.CartWiseBreakdown) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("type", func(e *jx.Encoder) { e.Str(string(coupon.TypeCartWise)) })
		e.Field("cart_total", func(e *jx.Encoder) { money(e, b.CartTotal) })
		e.Field("minimum_cart_value", func(e *jx.Encoder) { money(e, b.MinimumCartValue) })
		if b.Shortfall.IsPositive() {
			e.Field("shortfall", func(e *jx.Encoder) { money(e, b.Shortfall) })
			return
		}
		e.Field("discount_kind", func(e *jx.Encoder) { e.Str(string(b.DiscountKind)) })
		e.Field("discount_value", func(e *jx.Encoder) { number(e, b.DiscountValue) })
		e.Field("uncapped_discount", func(e *jx.Encoder) { money(e, b.UncappedDiscount) })
		if b.MaximumDiscount != nil {
			e.Field("maximum_discount", func(e *jx.Encoder) { money(e, *b.MaximumDiscount) })
		}
		e.Field("capped", func(e *jx.Encoder) { e.Bool(b.Capped) })
		e.Field("final_cart_total", func(e *jx.Encoder) { money(e, b.FinalCartTotal) })
	})
}

func encodeProductWise(e *jx.Encoder, b *discount.ProductWiseBreakdown) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("type", func(e *jx.Encoder) { e.Str(string(coupon.TypeProductWise)) })
		e.Field("discount_kind", func(e *jx.Encoder) { e.Str(string(b.DiscountKind)) })
		e.Field("discount_value", func(e *jx.Encoder) { number(e, b.DiscountValue) })
		e.Field("eligible_product_ids", func(e *jx.Encoder) { strs(e, b.EligibleProductIDs) })
		if b.CartProductIDs != nil {
			e.Field("cart_product_ids", func(e *jx.Encoder) { strs(e, b.CartProductIDs) })
		}
		e.Field("lines", func(e *jx.Encoder) {
			e.ArrStart()
			for _, l := range b.Lines {
				e.Obj(func(e *jx.Encoder) {
					e.Field("line_index", func(e *jx.Encoder) { e.Int(l.LineIndex) })
					e.Field("product_id", func(e *jx.Encoder) { e.Str(l.ProductID) })
					e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
					e.Field("subtotal", func(e *jx.Encoder) { money(e, l.Subtotal) })
					e.Field("discount", func(e *jx.Encoder) { money(e, l.Discount) })
				})
			}
			e.ArrEnd()
		})
	})
}

func encodeBxGy(e *jx.Encoder, b *discount.BxGyBreakdown) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("type", func(e *jx.Encoder) { e.Str(string(coupon.TypeBxGy)) })
		e.Field("buy_quantity_required", func(e *jx.Encoder) { e.Int(b.BuyQuantityRequired) })
		e.Field("buy_quantity_found", func(e *jx.Encoder) { e.Int(b.BuyQuantityFound) })
		e.Field("get_quantity_per_application", func(e *jx.Encoder) { e.Int(b.GetQuantityPerApplication) })
		e.Field("times_applicable", func(e *jx.Encoder) { e.Int(b.TimesApplicable) })
		if b.RepetitionLimit > 0 {
			e.Field("repetition_limit", func(e *jx.Encoder) { e.Int(b.RepetitionLimit) })
		}
		e.Field("times_applied", func(e *jx.Encoder) { e.Int(b.TimesApplied) })
		e.Field("free_items_given", func(e *jx.Encoder) { e.Int(b.FreeItemsGiven) })
		e.Field("buy_lines", func(e *jx.Encoder) {
			e.ArrStart()
			for _, l := range b.BuyLines {
				e.Obj(func(e *jx.Encoder) {
					e.Field("line_index", func(e *jx.Encoder) { e.Int(l.LineIndex) })
					e.Field("product_id", func(e *jx.Encoder) { e.Str(l.ProductID) })
					e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
				})
			}
			e.ArrEnd()
		})
		e.Field("free_lines", func(e *jx.Encoder) {
			e.ArrStart()
			for _, l := range b.FreeLines {
				e.Obj(func(e *jx.Encoder) {
					e.Field("line_index", func(e *jx.Encoder) { e.Int(l.LineIndex) })
					e.Field("product_id", func(e *jx.Encoder) { e.Str(l.ProductID) })
					e.Field("free_quantity", func(e *jx.Encoder) { e.Int(l.FreeQuantity) })
					e.Field("unit_price", func(e *jx.Encoder) { money(e, l.UnitPrice) })
					e.Field("discount", func(e *jx.Encoder) { money(e, l.Discount) })
				})
			}
			e.ArrEnd()
		})
	})
}

// EncodeCoupon writes a catalog entry in the same shape DecodeCoupon reads.
func EncodeCoupon(e *jx.Encoder, c *coupon.Coupon) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(c.Code) })
		if c.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(c.Description) })
		}
		e.Field("type", func(e *jx.Encoder) { e.Str(string(c.Type())) })
		e.Field("active", func(e *jx.Encoder) { e.Bool(c.Active) })
		if c.ValidFrom != nil {
			e.Field("valid_from", func(e *jx.Encoder) { e.Str(c.ValidFrom.Format(time.RFC3339)) })
		}
		if c.ValidUntil != nil {
			e.Field("valid_until", func(e *jx.Encoder) { e.Str(c.ValidUntil.Format(time.RFC3339)) })
		}
		if c.MaxUses > 0 {
			e.Field("max_uses", func(e *jx.Encoder) { e.Int(c.MaxUses) })
		}
		e.Field("uses", func(e *jx.Encoder) { e.Int(c.Uses) })

		switch def := c.Definition.(type) {
		case coupon.CartWise:
			e.Field("discount", func(e *jx.Encoder) { encodeSpec(e, def.Discount) })
			e.Field("details", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					if v := def.Config.MinimumCartValue; v != nil {
						e.Field("minimum_cart_value", func(e *jx.Encoder) { number(e, *v) })
					}
					if v := def.Config.MaximumDiscount; v != nil {
						e.Field("maximum_discount", func(e *jx.Encoder) { number(e, *v) })
					}
				})
			})
		case coupon.ProductWise:
			e.Field("discount", func(e *jx.Encoder) { encodeSpec(e, def.Discount) })
			e.Field("details", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("product_ids", func(e *jx.Encoder) { strs(e, def.EligibleProductIDs) })
				})
			})
		case coupon.BxGy:
			e.Field("details", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("buy_quantity", func(e *jx.Encoder) { e.Int(def.Config.BuyQuantity) })
					e.Field("get_quantity", func(e *jx.Encoder) { e.Int(def.Config.GetQuantity) })
					e.Field("buy_products", func(e *jx.Encoder) { strs(e, def.Config.BuyFrom) })
					e.Field("get_products", func(e *jx.Encoder) { strs(e, def.Config.GetFrom) })
					if def.Config.RepetitionLimit > 0 {
						e.Field("repetition_limit", func(e *jx.Encoder) { e.Int(def.Config.RepetitionLimit) })
					}
				})
			})
		}
	})
}

func encodeSpec(e *jx.Encoder, s discount.Spec) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("kind", func(e *jx.Encoder) { e.Str(string(s.Kind)) })
		e.Field("amount", func(e *jx.Encoder) { number(e, s.Amount) })
	})
}

// EncodeCoupons writes {"coupons": [...]}.
func EncodeCoupons(e *jx.Encoder, cs []coupon.Coupon) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("coupons", func(e *jx.Encoder) {
			e.ArrStart()
			for i := range cs {
				EncodeCoupon(e, &cs[i])
			}
			e.ArrEnd()
		})
	})
}

// EncodeCandidate writes an applicable coupon as listed for a cart.
func EncodeCandidate(e *jx.Encoder, c coupon.Candidate) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(c.Coupon.Code) })
		e.Field("type", func(e *jx.Encoder) { e.Str(string(c.Coupon.Type())) })
		if c.Coupon.Description != "" {
			e.Field("description", func(e *jx.Encoder) { e.Str(c.Coupon.Description) })
		}
		e.Field("discount_amount", func(e *jx.Encoder) { money(e, c.Result.Amount) })
		if c.Result.Breakdown != nil {
			e.Field("breakdown", func(e *jx.Encoder) { encodeBreakdown(e, c.Result.Breakdown) })
		}
	})
}

// EncodeCandidates writes a JSON array of candidates, best first.
func EncodeCandidates(e *jx.Encoder, cs []coupon.Candidate) {
	e.ArrStart()
	for _, c := range cs {
		EncodeCandidate(e, c)
	}
	e.ArrEnd()
}

// EncodeUpdatedCart writes the cart after a coupon was applied.
func EncodeUpdatedCart(e *jx.Encoder, c coupon.UpdatedCart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.ArrStart()
			for _, l := range c.Lines {
				e.Obj(func(e *jx.Encoder) {
					e.Field("product_id", func(e *jx.Encoder) { e.Str(l.ProductID) })
					e.Field("unit_price", func(e *jx.Encoder) { money(e, l.UnitPrice) })
					e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
					e.Field("total_discount", func(e *jx.Encoder) { money(e, l.Discount) })
				})
			}
			e.ArrEnd()
		})
		e.Field("total_price", func(e *jx.Encoder) { money(e, c.TotalPrice) })
		e.Field("total_discount", func(e *jx.Encoder) { money(e, c.TotalDiscount) })
		e.Field("final_price", func(e *jx.Encoder) { money(e, c.FinalPrice) })
	})
}

// EncodeApplication writes {"coupon", "result", "updated_cart"}.
func EncodeApplication(e *jx.Encoder, a *coupon.Application) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("coupon", func(e *jx.Encoder) { EncodeCoupon(e, a.Coupon) })
		e.Field("result", func(e *jx.Encoder) { EncodeResult(e, a.Result) })
		e.Field("updated_cart", func(e *jx.Encoder) { EncodeUpdatedCart(e, a.UpdatedCart) })
	})
}

// money writes v as a JSON number with exactly two decimals.
func money(e *jx.Encoder, v decimal.Decimal) {
	e.Raw([]byte(v.StringFixed(2)))
}

// number writes a configured value as given.
func number(e *jx.Encoder, v decimal.Decimal) {
	e.Raw([]byte(v.String()))
}

func strs(e *jx.Encoder, vs []string) {
	e.ArrStart()
	for _, v := range vs {
		e.Str(v)
	}
	e.ArrEnd()
}
