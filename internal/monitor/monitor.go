// Package monitor feeds frames from a bus source through the decoder.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"gitlab.com/d21d3q/goktmcan/internal/bus"
	"gitlab.com/d21d3q/goktmcan/internal/observability"
	"gitlab.com/d21d3q/goktmcan/pkg/goktmcan"
)

// Sink receives every decoded result. Returning an error stops the run.
type Sink func(goktmcan.Result) error

// Options controls a run.
type Options struct {
	// Only restricts output to these identifiers. Each must be known.
	Only []uint32
	// StopOnError ends the run on the first decode failure instead of
	// logging and skipping the frame.
	StopOnError bool
	Logger      logrus.FieldLogger
	// Metrics is optional.
	Metrics *observability.Metrics
}

// Stats summarises a run.
type Stats struct {
	Frames  int
	Decoded int
	Skipped int
	Failed  int
}

// Run reads src until it is exhausted, closed or ctx is done. Cancellation
// is reported as ctx.Err(); exhaustion and closure end the run cleanly.
func Run(ctx context.Context, src bus.Source, dec goktmcan.Decoder, sink Sink, opts Options) (Stats, error) {
	var stats Stats
	only, err := onlySet(opts.Only)
	if err != nil {
		return stats, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	for {
		f, err := src.Receive(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			if bus.IsEndOfStream(err) {
				return stats, nil
			}
			return stats, fmt.Errorf("receive: %w", err)
		}
		stats.Frames++
		if f.RTR || (only != nil && (f.Extended || !only[f.ID])) {
			stats.Skipped++
			opts.Metrics.RecordFrame(f.ID, f.Extended, observability.OutcomeSkipped, 0)
			continue
		}

		start := time.Now()
		result, err := dec.Analyze(ctx, f)
		took := time.Since(start)
		if err != nil {
			stats.Failed++
			opts.Metrics.RecordFrame(f.ID, f.Extended, observability.OutcomeFailed, took)
			opts.Metrics.RecordFailure(f.ID, failureKind(err))
			entry := logger.WithFields(logrus.Fields{
				"id":    fmt.Sprintf("0x%03X", f.ID),
				"frame": f.String(),
			}).WithError(err)
			var lv *goktmcan.LayoutViolationError
			if errors.As(err, &lv) {
				entry = entry.WithField("offset", lv.Offset)
			}
			entry.Warn("failed to decode frame")
			if opts.StopOnError {
				return stats, fmt.Errorf("decode %s: %w", f, err)
			}
			continue
		}
		if !result.Known {
			stats.Skipped++
			opts.Metrics.RecordFrame(f.ID, f.Extended, observability.OutcomeSkipped, 0)
			continue
		}
		stats.Decoded++
		opts.Metrics.RecordFrame(f.ID, f.Extended, observability.OutcomeDecoded, took)
		if err := sink(result); err != nil {
			return stats, err
		}
	}
}

func onlySet(ids []uint32) (map[uint32]bool, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	set := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		if !goktmcan.Known(id) {
			return nil, fmt.Errorf("identifier 0x%03X is not decodable", id)
		}
		set[id] = true
	}
	return set, nil
}

func failureKind(err error) string {
	var lv *goktmcan.LayoutViolationError
	var mp *goktmcan.MalformedPayloadError
	switch {
	case errors.As(err, &lv):
		return "layout"
	case errors.As(err, &mp):
		return "malformed"
	default:
		return "other"
	}
}
