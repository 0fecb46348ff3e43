// Package wire is the JSON representation of carts, coupons and evaluation
// results. It is shared by the HTTP API, the catalog loader and the batch
// evaluator so that every surface speaks the same format.
package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discounts/internal/domain/coupon"
	"github.com/xenking/kart-discounts/internal/domain/discount"
)

// ErrInvalidInput is returned when a decoded cart violates the line contract.
var ErrInvalidInput = errors.New("invalid input")

// DecodeCart decodes {"items": [...]}.
func DecodeCart(d *jx.Decoder) ([]discount.Line, error) {
	var lines []discount.Line
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items":
			items, err := DecodeItems(d)
			if err != nil {
				return errors.Wrap(err, "items")
			}
			lines = items
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	if lines == nil {
		lines = []discount.Line{}
	}
	return lines, nil
}

// DecodeItems decodes a JSON array of cart items, keeping their order.
func DecodeItems(d *jx.Decoder) ([]discount.Line, error) {
	lines := []discount.Line{}
	if err := d.Arr(func(d *jx.Decoder) error {
		l, err := decodeLine(d)
		if err != nil {
			return errors.Wrapf(err, "[%d]", len(lines))
		}
		lines = append(lines, l)
		return nil
	}); err != nil {
		return nil, err
	}
	return lines, nil
}

func decodeLine(d *jx.Decoder) (discount.Line, error) {
	var l discount.Line
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "product_id":
			l.ProductID, err = decodeID(d)
		case "unit_price":
			l.UnitPrice, err = decodeDecimal(d)
		case "quantity":
			l.Quantity, err = d.Int()
		default:
			return d.Skip()
		}
		return field(err, key)
	})
	return l, err
}

// DecodeCoupons decodes a catalog: either a bare array of coupons or
// {"coupons": [...]}.
func DecodeCoupons(d *jx.Decoder) ([]coupon.Coupon, error) {
	var out []coupon.Coupon
	arr := func(d *jx.Decoder) error {
		return d.Arr(func(d *jx.Decoder) error {
			c, err := DecodeCoupon(d)
			if err != nil {
				return errors.Wrapf(err, "coupon %d", len(out))
			}
			out = append(out, c)
			return nil
		})
	}

	switch d.Next() {
	case jx.Array:
		if err := arr(d); err != nil {
			return nil, err
		}
	case jx.Object:
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			if key != "coupons" {
				return d.Skip()
			}
			return arr(d)
		}); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("catalog: unexpected %s", d.Next())
	}
	return out, nil
}

// DecodeCoupon decodes a catalog entry. Coupons are active unless "active"
// is false.
func DecodeCoupon(d *jx.Decoder) (coupon.Coupon, error) {
	c := coupon.Coupon{Active: true}
	var (
		typ     string
		spec    discount.Spec
		details jx.Raw
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			c.Code, err = d.Str()
		case "description":
			c.Description, err = d.Str()
		case "type":
			typ, err = d.Str()
		case "active":
			c.Active, err = d.Bool()
		case "valid_from":
			c.ValidFrom, err = decodeOptTime(d)
		case "valid_until":
			c.ValidUntil, err = decodeOptTime(d)
		case "max_uses":
			c.MaxUses, err = d.Int()
		case "uses":
			c.Uses, err = d.Int()
		case "discount":
			spec, err = decodeSpec(d)
		case "details":
			details, err = d.RawAppend(nil)
		default:
			return d.Skip()
		}
		return field(err, key)
	}); err != nil {
		return coupon.Coupon{}, err
	}

	def, err := buildDefinition(typ, spec, details)
	if err != nil {
		if c.Code != "" {
			return coupon.Coupon{}, errors.Wrapf(err, "coupon %s", c.Code)
		}
		return coupon.Coupon{}, err
	}
	c.Definition = def
	return c, nil
}

// DecodeDefinition decodes a standalone coupon definition
// ({"type", "discount", "details"}); catalog fields are ignored.
func DecodeDefinition(d *jx.Decoder) (coupon.Definition, error) {
	c, err := DecodeCoupon(d)
	if err != nil {
		return nil, err
	}
	return c.Definition, nil
}

func buildDefinition(typ string, spec discount.Spec, details jx.Raw) (coupon.Definition, error) {
	t, err := coupon.ParseType(typ)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		details = jx.Raw("{}")
	}
	dd := jx.DecodeBytes(details)

	switch t {
	case coupon.TypeCartWise:
		cfg, err := decodeCartWiseDetails(dd)
		if err != nil {
			return nil, errors.Wrap(err, "details")
		}
		return coupon.CartWise{Config: cfg, Discount: spec}, nil
	case coupon.TypeProductWise:
		ids, err := decodeProductWiseDetails(dd)
		if err != nil {
			return nil, errors.Wrap(err, "details")
		}
		return coupon.ProductWise{EligibleProductIDs: ids, Discount: spec}, nil
	default:
		cfg, err := decodeBxGyDetails(dd)
		if err != nil {
			return nil, errors.Wrap(err, "details")
		}
		return coupon.BxGy{Config: cfg}, nil
	}
}

func decodeSpec(d *jx.Decoder) (discount.Spec, error) {
	var s discount.Spec
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "kind":
			v, err := d.Str()
			s.Kind = discount.Kind(v)
			return field(err, key)
		case "amount":
			v, err := decodeDecimal(d)
			s.Amount = v
			return field(err, key)
		default:
			return d.Skip()
		}
	})
	return s, err
}

func decodeCartWiseDetails(d *jx.Decoder) (discount.CartWiseConfig, error) {
	var cfg discount.CartWiseConfig
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "minimum_cart_value":
			cfg.MinimumCartValue, err = decodeOptDecimal(d)
		case "maximum_discount":
			cfg.MaximumDiscount, err = decodeOptDecimal(d)
		default:
			return d.Skip()
		}
		return field(err, key)
	})
	return cfg, err
}

func decodeProductWiseDetails(d *jx.Decoder) ([]string, error) {
	var ids []string
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "product_ids" {
			return d.Skip()
		}
		v, err := decodeIDs(d)
		ids = v
		return field(err, key)
	})
	if err == nil && len(ids) == 0 {
		err = errors.Wrap(discount.ErrInvalidConfig, "product_ids must not be empty")
	}
	return ids, err
}

func decodeBxGyDetails(d *jx.Decoder) (discount.BxGyConfig, error) {
	var cfg discount.BxGyConfig
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "buy_quantity":
			cfg.BuyQuantity, err = d.Int()
		case "get_quantity":
			cfg.GetQuantity, err = d.Int()
		case "buy_products":
			cfg.BuyFrom, err = decodeIDs(d)
		case "get_products":
			cfg.GetFrom, err = decodeIDs(d)
		case "repetition_limit":
			if d.Next() == jx.Null {
				return d.Null()
			}
			cfg.RepetitionLimit, err = d.Int()
		default:
			return d.Skip()
		}
		return field(err, key)
	})
	if err != nil {
		return cfg, err
	}
	if len(cfg.BuyFrom) == 0 || len(cfg.GetFrom) == 0 {
		return cfg, errors.Wrap(discount.ErrInvalidConfig, "buy_products and get_products must not be empty")
	}
	return cfg, nil
}

func decodeIDs(d *jx.Decoder) ([]string, error) {
	ids := []string{}
	err := d.Arr(func(d *jx.Decoder) error {
		id, err := decodeID(d)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}

// decodeID accepts product ids encoded as strings or integers.
func decodeID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", errors.Errorf("expected string or number, got %s", d.Next())
	}
}

// decodeDecimal accepts JSON numbers and numeric strings.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var s string
	switch d.Next() {
	case jx.String:
		v, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		s = v
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		s = n.String()
	default:
		return decimal.Zero, errors.Errorf("expected number, got %s", d.Next())
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse %q", s)
	}
	return v, nil
}

func decodeOptDecimal(d *jx.Decoder) (*decimal.Decimal, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	v, err := decodeDecimal(d)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeOptTime(d *jx.Decoder) (*time.Time, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errors.Wrap(err, "parse time")
	}
	return &t, nil
}

// field annotates a decode error with the key it occurred under.
func field(err error, key string) error {
	if err != nil {
		return errors.Wrap(err, key)
	}
	return nil
}

// CartRecord is one cart of a batch input stream.
type CartRecord struct {
	ID    string
	Lines []discount.Line
}

// DecodeCartRecord decodes {"id": ..., "items": [...]}. The id may be a
// string or an integer.
func DecodeCartRecord(d *jx.Decoder) (CartRecord, error) {
	rec := CartRecord{Lines: []discount.Line{}}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			id, err := decodeID(d)
			rec.ID = id
			return field(err, key)
		case "items":
			lines, err := DecodeItems(d)
			rec.Lines = lines
			return field(err, key)
		default:
			return d.Skip()
		}
	}); err != nil {
		return CartRecord{}, errors.Wrap(err, "decode cart record")
	}
	if rec.ID == "" {
		return CartRecord{}, errors.Wrap(ErrInvalidInput, "cart id is required")
	}
	return rec, nil
}
