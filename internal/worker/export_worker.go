package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"budge/internal/amqp"
	"budge/internal/cache"
	"budge/internal/core"
	"budge/internal/log"
	"budge/internal/sheets"

	"golang.org/x/sync/errgroup"
)

// SummaryReader computes a user's budget summary over a period.
type SummaryReader interface {
	Summary(ctx context.Context, userID string, period core.Period) ([]core.CategorySummary, error)
}

// EventSource delivers budget events to a handler until ctx ends.
type EventSource interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.BudgetEvent) error) error
}

// ExportWorker turns budget events into summary snapshots for the period the
// change falls in and hands them to an exporter.
type ExportWorker struct {
	summaries SummaryReader
	exporter  sheets.SummaryExporter
	dedupe    cache.Cache[string]
	logger    *log.Logger
	now       func() time.Time

	exported atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

// Stats counts handled events by outcome.
type Stats struct {
	Exported int64
	Skipped  int64
	Failed   int64
}

// NewExportWorker builds a worker. dedupe remembers the last exported
// fingerprint per user and period; nil disables deduplication.
func NewExportWorker(summaries SummaryReader, exporter sheets.SummaryExporter, dedupe cache.Cache[string], logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		summaries: summaries,
		exporter:  exporter,
		dedupe:    dedupe,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
	}
}

// HandleEvent exports the summary of the period containing the event date.
// Users without a budget and unchanged snapshots are skipped. Returned errors
// make the consumer retry the event.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.BudgetEvent) error {
	if ev == nil || ev.UserID == "" {
		w.skipped.Add(1)
		return nil
	}

	period := w.periodFor(ctx, ev)
	logger := w.logger.With(
		log.FieldEventType, string(ev.Type),
		log.FieldUserID, ev.UserID,
		log.FieldPeriodStart, period.Start.String(),
		log.FieldPeriodEnd, period.End.String())

	rows, err := w.summaries.Summary(ctx, ev.UserID, period)
	if err != nil {
		if core.KindOf(err) == core.NotFound {
			logger.DebugContext(ctx, "User has no budget, nothing to export")
			w.skipped.Add(1)
			return nil
		}
		w.failed.Add(1)
		return fmt.Errorf("compute summary: %w", err)
	}

	key := dedupeKey(ev.UserID, period)
	fp := fingerprint(rows)
	if w.dedupe != nil {
		if last, ok := w.dedupe.Get(key); ok && last == fp {
			logger.DebugContext(ctx, "Summary unchanged since last export, skipping")
			w.skipped.Add(1)
			return nil
		}
	}

	snap := sheets.NewSnapshot(ev.UserID, period, rows, w.now().UTC())
	ref, err := w.exporter.Export(ctx, snap)
	if err != nil {
		w.failed.Add(1)
		logger.ErrorContext(ctx, "Summary export failed", log.FieldError, err)
		return fmt.Errorf("export summary: %w", err)
	}

	if w.dedupe != nil {
		w.dedupe.Set(key, fp)
	}
	w.exported.Add(1)
	logger.InfoContext(ctx, "Summary exported",
		log.FieldSheetsRef, ref,
		"categories", len(rows),
		log.FieldAmountCents, snap.Totals.Spent.Cents)
	return nil
}

// periodFor resolves the calendar month of the event date, falling back to
// the current month when the event carries no usable date.
func (w *ExportWorker) periodFor(ctx context.Context, ev *amqp.BudgetEvent) core.Period {
	ref := w.now().UTC()
	if ev.Date != "" {
		d, err := core.ParseDate(ev.Date)
		if err != nil {
			w.logger.WarnContext(ctx, "Ignoring malformed event date", "date", ev.Date, log.FieldError, err)
		} else {
			ref = d.Time
		}
	}
	return core.ResolvePeriod(ref, nil, nil)
}

// Run consumes events from src until ctx ends, logging worker stats every
// statsInterval. A cancelled context is a clean exit.
func (w *ExportWorker) Run(ctx context.Context, src EventSource, statsInterval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return src.Consume(ctx, w.HandleEvent)
	})

	if statsInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(statsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					st := w.Stats()
					w.logger.Info("Export worker stats",
						"exported", st.Exported,
						"skipped", st.Skipped,
						"failed", st.Failed)
				}
			}
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *ExportWorker) Stats() Stats {
	return Stats{
		Exported: w.exported.Load(),
		Skipped:  w.skipped.Load(),
		Failed:   w.failed.Load(),
	}
}

func dedupeKey(userID string, p core.Period) string {
	return userID + "|" + p.Start.String() + "|" + p.End.String()
}

// fingerprint identifies the exported content of a summary.
func fingerprint(rows []core.CategorySummary) string {
	h := sha256.New()
	for _, r := range rows {
		fmt.Fprintf(h, "%s\x1f%s\x1f%d\x1f%d\x1e", r.ID, r.Name, r.Budgeted.Cents, r.Spent.Cents)
	}
	return hex.EncodeToString(h.Sum(nil))
}
