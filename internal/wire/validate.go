package wire

import (
	"github.com/go-faster/errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-discounts/internal/domain/discount"
)

type item struct {
	ProductID string          `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (i item) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID,
			validation.Required.Error("product id is required"),
		),
		validation.Field(&i.UnitPrice,
			validation.By(nonNegative),
		),
		validation.Field(&i.Quantity,
			validation.Required.Error("quantity must be at least 1"),
			validation.Min(1).Error("quantity must be at least 1"),
		),
	)
}

func nonNegative(value any) error {
	v, ok := value.(decimal.Decimal)
	if !ok {
		return errors.Errorf("unexpected type %T", value)
	}
	if v.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

// ValidateLines checks the cart line contract: a non-empty product id, a
// non-negative unit price and a positive quantity. An empty cart is valid.
func ValidateLines(lines []discount.Line) error {
	for i, l := range lines {
		it := item{ProductID: l.ProductID, UnitPrice: l.UnitPrice, Quantity: l.Quantity}
		if err := it.Validate(); err != nil {
			return errors.Wrapf(ErrInvalidInput, "items[%d]: %s", i, err)
		}
	}
	return nil
}
