// Package rescore sweeps up messages whose insight rows never made it to the
// database. Scoring is a best-effort side channel at request time, so an
// embedding outage leaves unscored messages behind; this runner finds and
// re-scores them in batches.
package rescore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/insight-labs/insight/internal/store"
	"github.com/insight-labs/insight/internal/taxonomy"
)

const (
	defaultBatchSize = 50
	defaultPause     = 5 * time.Second
)

// MessageSource lists and fetches messages that still need scoring.
type MessageSource interface {
	ListMessageIDsWithoutInsights(ctx context.Context, limit int) ([]uuid.UUID, error)
	GetMessage(ctx context.Context, id uuid.UUID) (*store.Message, error)
}

// Scorer turns message text into per-category scores.
type Scorer interface {
	Score(ctx context.Context, text string) (map[taxonomy.Category]float64, error)
}

// InsightWriter persists the scores.
type InsightWriter interface {
	CreateMessageInsights(ctx context.Context, messageID uuid.UUID, scores map[taxonomy.Category]float64) error
}

// Config holds the rescore run configuration.
type Config struct {
	BatchSize int           // messages per batch (default 50)
	Pause     time.Duration // pause between batches (default 5s)
	DryRun    bool          // score but don't persist
}

// Summary reports what a run did.
type Summary struct {
	Scored  int
	Failed  int
	Batches int
	DryRun  bool
}

// Runner orchestrates the rescore sweep.
type Runner struct {
	cfg    Config
	source MessageSource
	scorer Scorer
	writer InsightWriter
	logger *slog.Logger
}

func NewRunner(cfg Config, source MessageSource, scorer Scorer, writer InsightWriter, logger *slog.Logger) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Pause <= 0 {
		cfg.Pause = defaultPause
	}
	return &Runner{
		cfg:    cfg,
		source: source,
		scorer: scorer,
		writer: writer,
		logger: logger,
	}
}

// Run processes unscored messages batch by batch until none remain. A dry run
// stops after one batch since nothing is persisted and the same messages would
// come back forever.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{DryRun: r.cfg.DryRun}

	for {
		ids, err := r.source.ListMessageIDsWithoutInsights(ctx, r.cfg.BatchSize)
		if err != nil {
			return summary, fmt.Errorf("list unscored messages: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		summary.Batches++
		r.logger.Info("rescoring batch", "batch", summary.Batches, "messages", len(ids))

		batchScored := 0
		for _, id := range ids {
			select {
			case <-ctx.Done():
				r.logger.Info("rescore interrupted",
					"scored", summary.Scored,
					"failed", summary.Failed,
				)
				return summary, ctx.Err()
			default:
			}

			if err := r.rescoreOne(ctx, id); err != nil {
				r.logger.Warn("rescore failed", "message_id", id, "error", err)
				summary.Failed++
				continue
			}
			summary.Scored++
			batchScored++
		}

		if r.cfg.DryRun || len(ids) < r.cfg.BatchSize {
			break
		}
		// Every message in the batch failed; the next query would return the
		// same IDs, so stop instead of spinning.
		if batchScored == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		case <-time.After(r.cfg.Pause):
		}
	}

	r.logger.Info("rescore complete",
		"scored", summary.Scored,
		"failed", summary.Failed,
		"batches", summary.Batches,
		"dry_run", summary.DryRun,
	)
	return summary, nil
}

func (r *Runner) rescoreOne(ctx context.Context, id uuid.UUID) error {
	msg, err := r.source.GetMessage(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch message: %w", err)
	}

	scores, err := r.scorer.Score(ctx, msg.Text)
	if err != nil {
		return fmt.Errorf("score message: %w", err)
	}

	if r.cfg.DryRun {
		return nil
	}

	if err := r.writer.CreateMessageInsights(ctx, id, scores); err != nil {
		return fmt.Errorf("write insights: %w", err)
	}
	return nil
}
