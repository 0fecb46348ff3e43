package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-discounts/internal/domain/discount"
)

type mockCouponRepo struct {
	coupons []Coupon
	findErr error
	listErr error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*Coupon, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for i := range m.coupons {
		if m.coupons[i].Code == code {
			return &m.coupons[i], nil
		}
	}
	return nil, ErrCouponNotFound
}

func (m *mockCouponRepo) List(_ context.Context) ([]Coupon, error) {
	return m.coupons, m.listErr
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

func percent(v string) discount.Spec {
	return discount.Spec{Kind: discount.KindPercentage, Amount: d(v)}
}

func testLines() []discount.Line {
	return []discount.Line{
		{ProductID: "A", UnitPrice: d("100"), Quantity: 2},
		{ProductID: "D", UnitPrice: d("50"), Quantity: 1},
		{ProductID: "E", UnitPrice: d("80"), Quantity: 1},
	}
}

func testCatalog() []Coupon {
	return []Coupon{
		{
			Code:       "CART10",
			Active:     true,
			Definition: CartWise{Config: discount.CartWiseConfig{MinimumCartValue: dp("100")}, Discount: percent("10")},
		},
		{
			Code:       "PROD50",
			Active:     true,
			Definition: ProductWise{EligibleProductIDs: []string{"D"}, Discount: percent("50")},
		},
		{
			Code:       "B2G1",
			Active:     true,
			Definition: BxGy{Config: discount.BxGyConfig{BuyQuantity: 2, GetQuantity: 1, BuyFrom: []string{"A"}, GetFrom: []string{"D", "E"}}},
		},
		{
			Code:       "BIGSPEND",
			Active:     true,
			Definition: CartWise{Config: discount.CartWiseConfig{MinimumCartValue: dp("1000")}, Discount: percent("50")},
		},
		{
			Code:       "OFF",
			Active:     false,
			Definition: CartWise{Discount: percent("90")},
		},
		{
			Code:       "BROKEN",
			Active:     true,
			Definition: CartWise{Discount: discount.Spec{Kind: "bogus", Amount: d("1")}},
		},
	}
}

func TestEvaluate_Dispatch(t *testing.T) {
	lines := testLines()

	tests := []struct {
		name       string
		def        Definition
		wantType   Type
		wantAmount string
	}{
		{
			name:       "cart-wise",
			def:        CartWise{Discount: percent("10")},
			wantType:   TypeCartWise,
			wantAmount: "33.00",
		},
		{
			name:       "product-wise",
			def:        ProductWise{EligibleProductIDs: []string{"E"}, Discount: percent("25")},
			wantType:   TypeProductWise,
			wantAmount: "20.00",
		},
		{
			name:       "bxgy",
			def:        BxGy{Config: discount.BxGyConfig{BuyQuantity: 2, GetQuantity: 1, BuyFrom: []string{"A"}, GetFrom: []string{"D", "E"}}},
			wantType:   TypeBxGy,
			wantAmount: "80.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.def.Type())

			got, err := Evaluate(tt.def, lines)
			require.NoError(t, err)
			assert.True(t, got.Applicable)
			assert.True(t, d(tt.wantAmount).Equal(got.Amount),
				"expected amount %s, got %s", tt.wantAmount, got.Amount)
		})
	}
}

func TestEvaluate_MissingDefinition(t *testing.T) {
	_, err := Evaluate(nil, testLines())
	require.ErrorIs(t, err, discount.ErrInvalidConfig)
}

func TestCoupon_Available(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name    string
		coupon  Coupon
		wantErr error
	}{
		{name: "active without window", coupon: Coupon{Active: true}},
		{name: "inactive", coupon: Coupon{Active: false}, wantErr: ErrCouponInactive},
		{name: "not yet valid", coupon: Coupon{Active: true, ValidFrom: &future}, wantErr: ErrCouponExpired},
		{name: "expired", coupon: Coupon{Active: true, ValidUntil: &past}, wantErr: ErrCouponExpired},
		{name: "inside window", coupon: Coupon{Active: true, ValidFrom: &past, ValidUntil: &future}},
		{name: "usage limit reached", coupon: Coupon{Active: true, MaxUses: 10, Uses: 10}, wantErr: ErrCouponUsageLimitReached},
		{name: "usage under limit", coupon: Coupon{Active: true, MaxUses: 10, Uses: 9}},
		{name: "unlimited uses", coupon: Coupon{Active: true, MaxUses: 0, Uses: 9999}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.Available(now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestService_Apply(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := fixedNow.Add(-time.Hour)

	catalog := testCatalog()
	catalog = append(catalog, Coupon{
		Code:       "OLD",
		Active:     true,
		ValidUntil: &past,
		Definition: CartWise{Discount: percent("10")},
	})

	tests := []struct {
		name           string
		repo           *mockCouponRepo
		code           string
		wantErr        error
		wantErrText    string
		wantApplicable bool
		wantAmount     string
	}{
		{
			name:           "cart-wise applies",
			repo:           &mockCouponRepo{coupons: catalog},
			code:           "CART10",
			wantApplicable: true,
			wantAmount:     "33.00",
		},
		{
			name:           "not applicable is not an error",
			repo:           &mockCouponRepo{coupons: catalog},
			code:           "BIGSPEND",
			wantApplicable: false,
			wantAmount:     "0",
		},
		{
			name:    "unknown code",
			repo:    &mockCouponRepo{coupons: catalog},
			code:    "NOPE",
			wantErr: ErrCouponNotFound,
		},
		{
			name:    "inactive coupon",
			repo:    &mockCouponRepo{coupons: catalog},
			code:    "OFF",
			wantErr: ErrCouponInactive,
		},
		{
			name:    "expired coupon",
			repo:    &mockCouponRepo{coupons: catalog},
			code:    "OLD",
			wantErr: ErrCouponExpired,
		},
		{
			name:    "malformed coupon",
			repo:    &mockCouponRepo{coupons: catalog},
			code:    "BROKEN",
			wantErr: discount.ErrUnknownDiscountKind,
		},
		{
			name:        "repository failure",
			repo:        &mockCouponRepo{findErr: errors.New("disk on fire")},
			code:        "CART10",
			wantErrText: "lookup coupon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.repo)
			svc.now = func() time.Time { return fixedNow }

			got, err := svc.Apply(context.Background(), tt.code, testLines())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			if tt.wantErrText != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrText)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.code, got.Coupon.Code)
			assert.Equal(t, tt.wantApplicable, got.Result.Applicable)
			assert.True(t, d(tt.wantAmount).Equal(got.Result.Amount),
				"expected amount %s, got %s", tt.wantAmount, got.Result.Amount)
			assert.True(t, d(tt.wantAmount).Equal(got.UpdatedCart.TotalDiscount))
		})
	}
}

func TestService_Applicable(t *testing.T) {
	svc := NewService(&mockCouponRepo{coupons: testCatalog()})

	got, err := svc.Applicable(context.Background(), testLines())
	require.NoError(t, err)

	codes := make([]string, len(got))
	for i, c := range got {
		codes[i] = c.Coupon.Code
	}
	// B2G1 frees E (80), CART10 is 33, PROD50 is 25. BIGSPEND does not
	// apply, OFF is inactive and BROKEN is skipped.
	assert.Equal(t, []string{"B2G1", "CART10", "PROD50"}, codes)
	assert.True(t, d("80").Equal(got[0].Result.Amount))
}

func TestService_ApplicableTiesOrderedByCode(t *testing.T) {
	svc := NewService(&mockCouponRepo{coupons: []Coupon{
		{Code: "ZED", Active: true, Definition: CartWise{Discount: percent("10")}},
		{Code: "ALPHA", Active: true, Definition: CartWise{Discount: percent("10")}},
	}})

	got, err := svc.Applicable(context.Background(), testLines())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ALPHA", got[0].Coupon.Code)
	assert.Equal(t, "ZED", got[1].Coupon.Code)
}

func TestService_ApplicableListError(t *testing.T) {
	svc := NewService(&mockCouponRepo{listErr: errors.New("boom")})

	_, err := svc.Applicable(context.Background(), testLines())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list coupons")
}
