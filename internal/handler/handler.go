package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/kart-discounts/internal/domain/coupon"
	"github.com/xenking/kart-discounts/internal/domain/discount"
	"github.com/xenking/kart-discounts/internal/money"
)

const instrumentationName = "github.com/xenking/kart-discounts/internal/handler"

// Handler serves the discount HTTP API on top of the coupon service.
type Handler struct {
	coupons *coupon.Service
	catalog coupon.Repository

	tracer      trace.Tracer
	evaluations metric.Int64Counter
	amounts     metric.Float64Histogram
}

// NewHandler constructs a Handler. Telemetry providers may be no-op.
func NewHandler(
	coupons *coupon.Service,
	catalog coupon.Repository,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (*Handler, error) {
	meter := mp.Meter(instrumentationName)

	evaluations, err := meter.Int64Counter("discount.evaluations",
		metric.WithDescription("Coupon evaluations by coupon type and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create evaluations counter")
	}
	amounts, err := meter.Float64Histogram("discount.amount",
		metric.WithDescription("Discount granted by applicable evaluations"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create amount histogram")
	}

	return &Handler{
		coupons:     coupons,
		catalog:     catalog,
		tracer:      tp.Tracer(instrumentationName),
		evaluations: evaluations,
		amounts:     amounts,
	}, nil
}

// Routes returns the API router. middlewares run inside the router, where
// the matched route pattern is known.
func (h *Handler) Routes(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/evaluate", h.Evaluate)
		r.Get("/coupons", h.ListCoupons)
		r.Get("/coupons/{code}", h.GetCoupon)
		r.Post("/applicable-coupons", h.ApplicableCoupons)
		r.Post("/apply-coupon/{code}", h.ApplyCoupon)
	})
	return r
}

// record counts an evaluation and, when it applied, its amount.
func (h *Handler) record(ctx context.Context, t coupon.Type, res discount.Result) {
	attrs := metric.WithAttributes(
		attribute.String("coupon.type", string(t)),
		attribute.Bool("applicable", res.Applicable),
	)
	h.evaluations.Add(ctx, 1, attrs)
	if res.Applicable {
		h.amounts.Record(ctx, money.Round2Float(res.Amount.InexactFloat64()), attrs)
	}
}
