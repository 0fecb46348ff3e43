package coupon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, s := range []string{"cart-wise", "product-wise", "bxgy"} {
		got, err := ParseType(s)
		require.NoError(t, err)
		assert.Equal(t, Type(s), got)
	}

	for _, s := range []string{"", "CART-WISE", "bogo"} {
		_, err := ParseType(s)
		require.ErrorIs(t, err, ErrUnknownType, "input %q", s)
	}
}

func TestCoupon_Type(t *testing.T) {
	c := Coupon{Code: "X"}
	assert.Equal(t, Type(""), c.Type())

	c.Definition = BxGy{}
	assert.Equal(t, TypeBxGy, c.Type())
}
