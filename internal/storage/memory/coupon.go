// Package memory provides a read-only coupon catalog held in memory.
package memory

import (
	"context"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/kart-discounts/internal/domain/coupon"
	"github.com/xenking/kart-discounts/internal/wire"
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository over a fixed set of coupons.
// Codes are matched case-insensitively. It is safe for concurrent use.
type CouponRepository struct {
	coupons []coupon.Coupon
	byCode  map[string]int
}

// NewCouponRepository indexes coupons by code. Empty or duplicate codes
// (ignoring case) are rejected.
func NewCouponRepository(coupons []coupon.Coupon) (*CouponRepository, error) {
	r := &CouponRepository{
		coupons: slices.Clone(coupons),
		byCode:  make(map[string]int, len(coupons)),
	}
	for i, c := range r.coupons {
		key := normalize(c.Code)
		if key == "" {
			return nil, errors.Errorf("coupon %d: code is empty", i)
		}
		if _, dup := r.byCode[key]; dup {
			return nil, errors.Errorf("duplicate coupon code %q", c.Code)
		}
		r.byCode[key] = i
	}
	return r, nil
}

// FindByCode returns a copy of the coupon for code or
// coupon.ErrCouponNotFound.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := r.byCode[normalize(code)]
	if !ok {
		return nil, coupon.ErrCouponNotFound
	}
	c := r.coupons[i]
	return &c, nil
}

// List returns all coupons in catalog order.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(r.coupons), nil
}

// Len returns the number of coupons in the catalog.
func (r *CouponRepository) Len() int {
	return len(r.coupons)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LoadFile reads a JSON catalog from path. Files ending in .gz are
// decompressed.
func LoadFile(path string) ([]coupon.Coupon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	coupons, err := Load(r)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return coupons, nil
}

// Load decodes a JSON catalog from r.
func Load(r io.Reader) ([]coupon.Coupon, error) {
	coupons, err := wire.DecodeCoupons(jx.Decode(r, 64*1024))
	if err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	return coupons, nil
}
