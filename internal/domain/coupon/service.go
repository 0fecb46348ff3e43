package coupon

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-discounts/internal/domain/discount"
)

// Application is the outcome of applying one coupon to a cart.
type Application struct {
	Coupon      *Coupon
	Result      discount.Result
	UpdatedCart UpdatedCart
}

// Candidate is a catalog coupon that applies to a cart.
type Candidate struct {
	Coupon *Coupon
	Result discount.Result
}

// Service applies catalog coupons to carts. Availability (active flag,
// validity window, usage limit) is decided here before the evaluator runs.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Apply looks up the coupon for code, checks it is available and evaluates it
// against lines. A coupon that does not apply to the cart is not an error:
// the returned Application carries the not-applicable Result.
func (s *Service) Apply(ctx context.Context, code string, lines []discount.Line) (*Application, error) {
	c, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if err := c.Available(s.now()); err != nil {
		return nil, err
	}

	res, err := Evaluate(c.Definition, lines)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate coupon %s", c.Code)
	}

	return &Application{
		Coupon:      c,
		Result:      res,
		UpdatedCart: NewUpdatedCart(lines, res),
	}, nil
}

// Applicable evaluates every available catalog coupon against lines and
// returns the ones that apply, largest discount first. Catalog entries that
// fail to evaluate are logged and skipped.
func (s *Service) Applicable(ctx context.Context, lines []discount.Line) ([]Candidate, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}

	now := s.now()
	lg := zctx.From(ctx)

	var out []Candidate
	for i := range coupons {
		c := &coupons[i]
		if c.Available(now) != nil {
			continue
		}
		res, err := Evaluate(c.Definition, lines)
		if err != nil {
			lg.Warn("Skipping malformed coupon",
				zap.String("code", c.Code),
				zap.Error(err),
			)
			continue
		}
		if !res.Applicable {
			continue
		}
		out = append(out, Candidate{Coupon: c, Result: res})
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		if c := b.Result.Amount.Cmp(a.Result.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.Coupon.Code, b.Coupon.Code)
	})
	return out, nil
}
