package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-discounts/internal/domain/coupon"
)

const catalogJSON = `{
	"coupons": [
		{
			"code": "Cart10",
			"type": "cart-wise",
			"discount": {"kind": "percentage", "amount": 10},
			"details": {"minimum_cart_value": 100}
		},
		{
			"code": "B2G1",
			"type": "bxgy",
			"details": {"buy_quantity": 2, "get_quantity": 1, "buy_products": ["A"], "get_products": ["D"]}
		}
	]
}`

func TestCouponRepository_FindByCode(t *testing.T) {
	coupons, err := Load(strings.NewReader(catalogJSON))
	require.NoError(t, err)

	repo, err := NewCouponRepository(coupons)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Len())

	ctx := context.Background()
	for _, code := range []string{"CART10", "cart10", " Cart10 "} {
		c, err := repo.FindByCode(ctx, code)
		require.NoError(t, err, code)
		assert.Equal(t, "Cart10", c.Code)
		assert.Equal(t, coupon.TypeCartWise, c.Type())
	}

	_, err = repo.FindByCode(ctx, "NOPE")
	require.ErrorIs(t, err, coupon.ErrCouponNotFound)
}

func TestCouponRepository_ReturnsCopies(t *testing.T) {
	repo, err := NewCouponRepository([]coupon.Coupon{{Code: "A", Active: true}})
	require.NoError(t, err)

	ctx := context.Background()
	c, err := repo.FindByCode(ctx, "A")
	require.NoError(t, err)
	c.Active = false

	list, err := repo.List(ctx)
	require.NoError(t, err)
	list[0].Code = "Z"

	again, err := repo.FindByCode(ctx, "A")
	require.NoError(t, err)
	assert.True(t, again.Active)
	assert.Equal(t, "A", again.Code)
}

func TestCouponRepository_List(t *testing.T) {
	coupons, err := Load(strings.NewReader(catalogJSON))
	require.NoError(t, err)
	repo, err := NewCouponRepository(coupons)
	require.NoError(t, err)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Cart10", list[0].Code)
	assert.Equal(t, "B2G1", list[1].Code)
}

func TestCouponRepository_CancelledContext(t *testing.T) {
	repo, err := NewCouponRepository(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = repo.List(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, err = repo.FindByCode(ctx, "A")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewCouponRepository_Invalid(t *testing.T) {
	_, err := NewCouponRepository([]coupon.Coupon{{Code: "A"}, {Code: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = NewCouponRepository([]coupon.Coupon{{Code: "  "}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "coupons.json")
	require.NoError(t, os.WriteFile(plain, []byte(catalogJSON), 0o600))

	gzPath := filepath.Join(dir, "coupons.json.gz")
	f, err := os.Create(gzPath)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(catalogJSON))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	for _, path := range []string{plain, gzPath} {
		coupons, err := LoadFile(path)
		require.NoError(t, err, path)
		assert.Len(t, coupons, 2)
	}

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"code":"X","type":"weird"}]`), 0o600))
	_, err = LoadFile(bad)
	require.ErrorIs(t, err, coupon.ErrUnknownType)
}
