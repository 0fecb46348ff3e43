package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/kart-discounts/internal/wire"
)

// ListCoupons returns the whole catalog.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListCoupons")
	defer span.End()

	coupons, err := h.catalog.List(ctx)
	if err != nil {
		fail(w, r, span, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeCoupons(e, coupons) })
}

// GetCoupon returns one catalog coupon by code.
func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ctx, span := h.tracer.Start(r.Context(), "GetCoupon",
		trace.WithAttributes(attribute.String("coupon.code", code)),
	)
	defer span.End()

	c, err := h.catalog.FindByCode(ctx, code)
	if err != nil {
		fail(w, r, span, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { wire.EncodeCoupon(e, c) })
}
