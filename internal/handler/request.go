package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-discounts/internal/domain/coupon"
	"github.com/xenking/kart-discounts/internal/domain/discount"
	"github.com/xenking/kart-discounts/internal/wire"
)

const maxBodyBytes = 1 << 20

// BadRequestError is returned when the request body cannot be used.
type BadRequestError struct {
	Err error
}

func (e *BadRequestError) Error() string { return e.Err.Error() }
func (e *BadRequestError) Unwrap() error { return e.Err }

func badRequest(err error) error {
	return &BadRequestError{Err: err}
}

// request is the decoded body of the POST endpoints. The cart is accepted
// either under "cart" or as top-level "items".
type request struct {
	lines      []discount.Line
	definition coupon.Definition
}

func readRequest(w http.ResponseWriter, r *http.Request, withDefinition bool) (request, error) {
	var (
		req     request
		hasCart bool
	)
	d := jx.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), 4096)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "cart":
			lines, err := wire.DecodeCart(d)
			if err != nil {
				return err
			}
			req.lines, hasCart = lines, true
		case "items":
			lines, err := wire.DecodeItems(d)
			if err != nil {
				return errors.Wrap(err, "items")
			}
			req.lines, hasCart = lines, true
		case "coupon":
			if !withDefinition {
				return d.Skip()
			}
			def, err := wire.DecodeDefinition(d)
			if err != nil {
				return errors.Wrap(err, "coupon")
			}
			req.definition = def
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return request{}, badRequest(errors.Wrap(err, "decode body"))
	}

	if !hasCart {
		return request{}, badRequest(errors.New("cart is required"))
	}
	if withDefinition && req.definition == nil {
		return request{}, badRequest(errors.New("coupon is required"))
	}
	if err := wire.ValidateLines(req.lines); err != nil {
		return request{}, badRequest(err)
	}
	return req, nil
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var bre *BadRequestError
	switch {
	case errors.Is(err, coupon.ErrCouponNotFound):
		return http.StatusNotFound
	case errors.Is(err, coupon.ErrCouponInactive),
		errors.Is(err, coupon.ErrCouponExpired),
		errors.Is(err, coupon.ErrCouponUsageLimitReached):
		return http.StatusUnprocessableEntity
	case errors.As(err, &bre),
		errors.Is(err, discount.ErrInvalidConfig),
		errors.Is(err, discount.ErrUnknownDiscountKind),
		errors.Is(err, coupon.ErrUnknownType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error. Server errors are logged and their
// details are not exposed.
func fail(w http.ResponseWriter, r *http.Request, span trace.Span, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "internal error")
		msg = http.StatusText(status)
	}
	writeError(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, f func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	f(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) { wire.EncodeError(e, status, msg) })
}
