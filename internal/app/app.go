package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/kart-discounts/internal/domain/coupon"
	"github.com/xenking/kart-discounts/internal/handler"
	"github.com/xenking/kart-discounts/internal/storage/memory"
	"github.com/xenking/kart-discounts/pkg/health"
	"github.com/xenking/kart-discounts/pkg/httpmiddleware"
)

// exposedHeaders are the response headers browsers may read.
var exposedHeaders = []string{
	httpmiddleware.RequestIDHeader,
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"X-RateLimit-Reset",
	"Retry-After",
}

// Deps are the collaborators of the HTTP stack.
type Deps struct {
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Catalog        coupon.Repository
	Health         *health.Health
	RateLimit      RateLimitConfig
	CORS           CORSConfig
}

// NewHandler assembles the API router, probes and middleware chain. The
// rate limiter's cleanup goroutine stops with ctx.
func NewHandler(ctx context.Context, d Deps) (http.Handler, error) {
	h, err := handler.NewHandler(coupon.NewService(d.Catalog), d.Catalog, d.TracerProvider, d.MeterProvider)
	if err != nil {
		return nil, errors.Wrap(err, "create handler")
	}

	api := otelhttp.NewHandler(h.Routes(httpmiddleware.LogRequests()), "kart-api",
		otelhttp.WithTracerProvider(d.TracerProvider),
		otelhttp.WithMeterProvider(d.MeterProvider),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", d.Health.LiveEndpoint)
	mux.HandleFunc("GET /readyz", d.Health.ReadyEndpoint)
	mux.Handle("/", api)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(d.Logger),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins:          d.CORS.Origins,
			Expose:           exposedHeaders,
			AllowCredentials: d.CORS.AllowCredentials,
			MaxAge:           d.CORS.MaxAge,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    d.RateLimit.Max,
			Window: d.RateLimit.Window,
		}),
	), nil
}

// Run loads the coupon catalog, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("catalog", cfg.CatalogPath),
	)

	coupons, err := memory.LoadFile(cfg.CatalogPath)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	catalog, err := memory.NewCouponRepository(coupons)
	if err != nil {
		return errors.Wrap(err, "index catalog")
	}
	lg.Info("Catalog loaded", zap.Int("coupons", catalog.Len()))

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("catalog", time.Second, health.NonEmptyCheck("catalog", catalog.Len))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc", time.Second, health.GCMaxPauseCheck(5*time.Second))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	h, err := NewHandler(ctx, Deps{
		Logger:         lg,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
		Catalog:        catalog,
		Health:         healthSvc,
		RateLimit:      cfg.RateLimit,
		CORS:           cfg.CORS,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           h,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	// Wait for cancellation, fail readiness, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
