package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/kart-discounts/internal/domain/coupon"
	"github.com/xenking/kart-discounts/internal/wire"
)

// Evaluate runs a coupon definition supplied in the request against the
// cart. Not applicable is a normal 200 outcome here.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Evaluate")
	defer span.End()

	req, err := readRequest(w, r, true)
	if err != nil {
		fail(w, r, span, err)
		return
	}
	t := req.definition.Type()
	span.SetAttributes(
		attribute.String("coupon.type", string(t)),
		attribute.Int("cart.lines", len(req.lines)),
	)

	res, err := coupon.Evaluate(req.definition, req.lines)
	if err != nil {
		fail(w, r, span, err)
		return
	}
	h.record(ctx, t, res)
	span.SetAttributes(attribute.Bool("discount.applicable", res.Applicable))

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeResult(e, res) })
}

// ApplyCoupon applies the catalog coupon {code} to the cart and returns the
// updated cart. A coupon that does not apply yields 422 with its result.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ctx, span := h.tracer.Start(r.Context(), "ApplyCoupon",
		trace.WithAttributes(attribute.String("coupon.code", code)),
	)
	defer span.End()

	req, err := readRequest(w, r, false)
	if err != nil {
		fail(w, r, span, err)
		return
	}

	app, err := h.coupons.Apply(ctx, code, req.lines)
	if err != nil {
		fail(w, r, span, err)
		return
	}
	h.record(ctx, app.Coupon.Type(), app.Result)
	span.SetAttributes(attribute.Bool("discount.applicable", app.Result.Applicable))

	if !app.Result.Applicable {
		writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusUnprocessableEntity) })
				e.Field("message", func(e *jx.Encoder) { e.Str(app.Result.Message) })
				e.Field("result", func(e *jx.Encoder) { wire.EncodeResult(e, app.Result) })
			})
		})
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeApplication(e, app) })
}

// ApplicableCoupons lists every catalog coupon that applies to the cart,
// best discount first.
func (h *Handler) ApplicableCoupons(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ApplicableCoupons")
	defer span.End()

	req, err := readRequest(w, r, false)
	if err != nil {
		fail(w, r, span, err)
		return
	}

	candidates, err := h.coupons.Applicable(ctx, req.lines)
	if err != nil {
		fail(w, r, span, err)
		return
	}
	for _, c := range candidates {
		h.record(ctx, c.Coupon.Type(), c.Result)
	}
	span.SetAttributes(attribute.Int("coupons.applicable", len(candidates)))

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("applicable_coupons", func(e *jx.Encoder) { wire.EncodeCandidates(e, candidates) })
		})
	})
}
