package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-discounts/internal/batch"
	"github.com/xenking/kart-discounts/internal/domain/coupon"
	"github.com/xenking/kart-discounts/internal/storage/memory"
)

func main() {
	var (
		catalogPath string
		inputPath   string
		outputPath  string
		workers     int
		expected    uint
	)

	flag.StringVar(&catalogPath, "catalog", "coupons.json", "coupon catalog file (JSON, optionally .gz)")
	flag.StringVar(&inputPath, "input", "-", "NDJSON carts, one {id, items} per line (.gz supported, - for stdin)")
	flag.StringVar(&outputPath, "output", "-", "NDJSON results (.gz supported, - for stdout)")
	flag.IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "concurrent cart evaluations")
	flag.UintVar(&expected, "expected-carts", 1_000_000, "expected number of carts, sizes duplicate detection")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, catalogPath, inputPath, outputPath, batch.Config{
		Workers:       workers,
		ExpectedCarts: expected,
	}); err != nil {
		slog.Error("discount batch failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("discount batch completed successfully")
}

func run(ctx context.Context, catalogPath, inputPath, outputPath string, cfg batch.Config) (rerr error) {
	coupons, err := memory.LoadFile(catalogPath)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}
	catalog, err := memory.NewCouponRepository(coupons)
	if err != nil {
		return errors.Wrap(err, "index catalog")
	}
	slog.Info("catalog loaded", slog.Int("coupons", catalog.Len()))

	in, err := batch.OpenInput(inputPath)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := batch.CreateOutput(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil && rerr == nil {
			rerr = errors.Wrap(err, "close output")
		}
	}()

	slog.Info("evaluating carts", slog.Int("workers", cfg.Workers))
	stats, err := batch.NewRunner(coupon.NewService(catalog), cfg).Run(ctx, in, out)
	if err != nil {
		return errors.Wrap(err, "evaluate carts")
	}

	slog.Info("evaluation complete",
		slog.Int("carts", stats.Carts),
		slog.Int("discounted", stats.Discounted),
		slog.Int("failed", stats.Failed),
		slog.Int("possible_duplicates", stats.Duplicates),
	)
	return nil
}
