// Package batch evaluates streams of carts against the coupon catalog
// offline. Input and output are newline-delimited JSON, optionally gzip
// compressed.
package batch

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kart-discounts/internal/domain/coupon"
	"github.com/xenking/kart-discounts/internal/domain/discount"
	"github.com/xenking/kart-discounts/internal/money"
	"github.com/xenking/kart-discounts/internal/wire"
)

const (
	maxLineSize    = 1 << 20
	chunkPerWorker = 64
	progressEvery  = 100_000
	duplicateFPR   = 0.001
)

// Config tunes a Runner.
type Config struct {
	// Workers bounds concurrent cart evaluations.
	Workers int
	// ExpectedCarts sizes the duplicate id filter.
	ExpectedCarts uint
}

// Stats summarizes a run.
type Stats struct {
	Carts      int
	Discounted int
	Failed     int
	Duplicates int
}

// Runner evaluates carts with a coupon service.
type Runner struct {
	svc     *coupon.Service
	workers int
	seen    *bloom.BloomFilter
}

// NewRunner creates a Runner. Zero config values fall back to one worker
// and a filter sized for a million carts.
func NewRunner(svc *coupon.Service, cfg Config) *Runner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ExpectedCarts == 0 {
		cfg.ExpectedCarts = 1_000_000
	}
	return &Runner{
		svc:     svc,
		workers: cfg.Workers,
		seen:    bloom.NewWithEstimates(cfg.ExpectedCarts, duplicateFPR),
	}
}

// pending is a raw input line awaiting evaluation.
type pending struct {
	line int
	raw  []byte
}

// outcome is the evaluation of a single input line.
type outcome struct {
	line       int
	id         string
	total      decimal.Decimal
	candidates []coupon.Candidate
	err        error
}

// Run reads carts from r and writes one result line per cart to w, in input
// order. Malformed carts produce an error line and do not stop the run.
func (rn *Runner) Run(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	out := bufio.NewWriter(w)

	chunk := make([]pending, 0, rn.workers*chunkPerWorker)
	lineNo := 0
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		results, err := rn.evaluate(ctx, chunk)
		if err != nil {
			return err
		}
		for i := range results {
			rn.account(&stats, &results[i])
			if _, err := out.Write(encodeOutcome(&results[i])); err != nil {
				return errors.Wrap(err, "write result")
			}
		}
		chunk = chunk[:0]
		return nil
	}

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		lineNo++
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		chunk = append(chunk, pending{
			line: lineNo,
			raw:  append([]byte(nil), scanner.Bytes()...),
		})
		if len(chunk) == cap(chunk) {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, errors.Wrap(err, "scan input")
	}
	if err := flush(); err != nil {
		return stats, err
	}
	if err := out.Flush(); err != nil {
		return stats, errors.Wrap(err, "flush output")
	}
	return stats, nil
}

// evaluate decodes and evaluates one chunk concurrently.
func (rn *Runner) evaluate(ctx context.Context, chunk []pending) ([]outcome, error) {
	results := make([]outcome, len(chunk))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(rn.workers)
	for i, p := range chunk {
		g.Go(func() error {
			results[i] = rn.evaluateLine(ctx, p.line, p.raw)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (rn *Runner) evaluateLine(ctx context.Context, line int, raw []byte) outcome {
	o := outcome{line: line}

	rec, err := wire.DecodeCartRecord(jx.DecodeBytes(raw))
	if err != nil {
		o.err = err
		return o
	}
	o.id = rec.ID
	if err := wire.ValidateLines(rec.Lines); err != nil {
		o.err = err
		return o
	}
	o.total = money.Round2(discount.CartTotal(rec.Lines))

	candidates, err := rn.svc.Applicable(ctx, rec.Lines)
	if err != nil {
		o.err = err
		return o
	}
	o.candidates = candidates
	return o
}

// account updates stats for o. It runs on the reading goroutine only.
func (rn *Runner) account(stats *Stats, o *outcome) {
	stats.Carts++
	if stats.Carts%progressEvery == 0 {
		slog.Info("batch progress", slog.Int("carts", stats.Carts))
	}
	if o.id != "" && rn.seen.TestAndAddString(o.id) {
		stats.Duplicates++
		slog.Warn("possible duplicate cart id",
			slog.String("cart_id", o.id),
			slog.Int("line", o.line),
		)
	}
	switch {
	case o.err != nil:
		stats.Failed++
		slog.Warn("cart failed",
			slog.Int("line", o.line),
			slog.String("cart_id", o.id),
			slog.String("error", o.err.Error()),
		)
	case len(o.candidates) > 0:
		stats.Discounted++
	}
}

// encodeOutcome renders o as a single NDJSON line.
func encodeOutcome(o *outcome) []byte {
	b := wire.Encode(func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("line", func(e *jx.Encoder) { e.Int(o.line) })
			if o.id != "" {
				e.Field("cart_id", func(e *jx.Encoder) { e.Str(o.id) })
			}
			if o.err != nil {
				e.Field("error", func(e *jx.Encoder) { e.Str(o.err.Error()) })
				return
			}
			e.Field("cart_total", func(e *jx.Encoder) { e.Raw([]byte(o.total.StringFixed(2))) })
			e.Field("best", func(e *jx.Encoder) {
				if len(o.candidates) == 0 {
					e.Null()
					return
				}
				wire.EncodeCandidate(e, o.candidates[0])
			})
			e.Field("applicable", func(e *jx.Encoder) { wire.EncodeCandidates(e, o.candidates) })
		})
	})
	return append(b, '\n')
}
