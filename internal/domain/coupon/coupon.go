package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-discounts/internal/domain/discount"
)

// Type names the coupon variant.
type Type string

const (
	// TypeCartWise discounts the whole cart above a minimum value.
	TypeCartWise Type = "cart-wise"
	// TypeProductWise discounts selected products.
	TypeProductWise Type = "product-wise"
	// TypeBxGy gives products for free when others are bought.
	TypeBxGy Type = "bxgy"
)

var (
	// ErrCouponNotFound is returned when no coupon exists for a code.
	ErrCouponNotFound = errors.New("coupon not found")
	// ErrCouponInactive is returned for coupons disabled in the catalog.
	ErrCouponInactive = errors.New("coupon inactive")
	// ErrCouponExpired is returned when a coupon is outside its valid time window.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrCouponUsageLimitReached is returned when a coupon has exhausted its allowed uses.
	ErrCouponUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrUnknownType is returned for a coupon type outside the closed set.
	ErrUnknownType = errors.New("unknown coupon type")
)

// ParseType validates s as a coupon Type.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeCartWise, TypeProductWise, TypeBxGy:
		return t, nil
	default:
		return "", errors.Wrapf(ErrUnknownType, "%q", s)
	}
}

// Definition is the typed configuration of a coupon. It is one of CartWise,
// ProductWise or BxGy; the set is closed.
type Definition interface {
	Type() Type
	definition()
}

// CartWise discounts the whole cart.
type CartWise struct {
	Config   discount.CartWiseConfig
	Discount discount.Spec
}

// ProductWise discounts cart lines whose product is eligible.
type ProductWise struct {
	EligibleProductIDs []string
	Discount           discount.Spec
}

// BxGy is a buy-X-get-Y-free rule.
type BxGy struct {
	Config discount.BxGyConfig
}

func (CartWise) Type() Type    { return TypeCartWise }
func (ProductWise) Type() Type { return TypeProductWise }
func (BxGy) Type() Type        { return TypeBxGy }

func (CartWise) definition()    {}
func (ProductWise) definition() {}
func (BxGy) definition()        {}

// Evaluate dispatches def to the matching evaluator.
func Evaluate(def Definition, lines []discount.Line) (discount.Result, error) {
	switch def := def.(type) {
	case CartWise:
		return discount.EvaluateCartWise(lines, def.Config, def.Discount)
	case ProductWise:
		return discount.EvaluateProductWise(lines, def.EligibleProductIDs, def.Discount)
	case BxGy:
		return discount.EvaluateBxGy(lines, def.Config)
	case nil:
		return discount.Result{}, errors.Wrap(discount.ErrInvalidConfig, "coupon definition is missing")
	default:
		return discount.Result{}, errors.Errorf("unsupported coupon definition %T", def)
	}
}

// Coupon is a catalog entry: a definition plus the availability constraints
// checked before it is evaluated.
type Coupon struct {
	Code        string
	Description string
	Active      bool
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	// MaxUses of zero means unlimited.
	MaxUses    int
	Uses       int
	Definition Definition
}

// Type returns the variant of the coupon definition.
func (c *Coupon) Type() Type {
	if c.Definition == nil {
		return ""
	}
	return c.Definition.Type()
}

// Available reports whether the coupon may be used at now.
func (c *Coupon) Available(now time.Time) error {
	if !c.Active {
		return ErrCouponInactive
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return ErrCouponExpired
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return ErrCouponExpired
	}
	if c.MaxUses > 0 && c.Uses >= c.MaxUses {
		return ErrCouponUsageLimitReached
	}
	return nil
}

// Repository provides lookup of catalog coupons.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
}
