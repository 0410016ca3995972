package remote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rezkam/stackit/internal/infrastructure/persistence/wire"
)

type writeOp int

const (
	opInsert writeOp = iota
	opUpsert
	opDelete
	opComplete
)

func (o writeOp) String() string {
	switch o {
	case opInsert:
		return "insert"
	case opUpsert:
		return "upsert"
	case opDelete:
		return "delete"
	case opComplete:
		return "complete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// pendingWrite is one best-effort remote mutation waiting for the worker.
type pendingWrite struct {
	op         writeOp
	id         uuid.UUID
	row        wire.Row
	completion wire.Completion
}

// enqueue hands w to the background worker without blocking.
// A full queue, or a repository that is shutting down, drops the write.
func (r *Repository) enqueue(ctx context.Context, w pendingWrite) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()

	if r.closed {
		r.metrics.dropped.Add(ctx, 1, metric.WithAttributes(opAttr(w.op)))
		slog.WarnContext(ctx, "Dropped remote write after shutdown",
			slog.String("op", w.op.String()),
			slog.String("item_id", w.id.String()))
		return
	}

	select {
	case r.writes <- w:
	default:
		r.metrics.dropped.Add(ctx, 1, metric.WithAttributes(opAttr(w.op)))
		slog.WarnContext(ctx, "Dropped remote write due to full queue",
			slog.String("op", w.op.String()),
			slog.String("item_id", w.id.String()))
	}
}

// processWrites drains the queue in FIFO order, so for any id the remote
// sees writes in the order the cache applied them.
func (r *Repository) processWrites() {
	defer r.wg.Done()

	for {
		select {
		case w := <-r.writes:
			ctx, cancel := r.operationContext(r.appCtx)
			r.apply(ctx, w)
			cancel()

		case <-r.shutdownChan:
			// Drain what was queued before shutdown. appCtx may already be
			// cancelled, so detach from it and keep only the timeout.
			for {
				select {
				case w := <-r.writes:
					ctx, cancel := r.operationContext(context.WithoutCancel(r.appCtx))
					r.apply(ctx, w)
					cancel()
				default:
					return
				}
			}
		}
	}
}

func (r *Repository) apply(ctx context.Context, w pendingWrite) {
	ctx, span := r.tracer.Start(ctx, "remote."+w.op.String())
	defer span.End()

	var err error
	switch w.op {
	case opInsert:
		err = r.store.Insert(ctx, w.row)
	case opUpsert:
		err = r.store.Upsert(ctx, w.row)
	case opDelete:
		err = r.store.Delete(ctx, w.id, r.userID)
	case opComplete:
		err = r.store.SetCompletion(ctx, w.completion)
	default:
		err = fmt.Errorf("unknown write op %s", w.op)
	}

	if err != nil {
		// The cache stays the visible truth; the failure is only reported.
		span.RecordError(err)
		r.metrics.failed.Add(ctx, 1, metric.WithAttributes(opAttr(w.op)))
		slog.WarnContext(ctx, "Failed to write schedule item to remote store",
			slog.String("op", w.op.String()),
			slog.String("item_id", w.id.String()),
			slog.String("error", err.Error()))
		return
	}

	r.metrics.written.Add(ctx, 1, metric.WithAttributes(opAttr(w.op)))
	slog.DebugContext(ctx, "Wrote schedule item to remote store",
		slog.String("op", w.op.String()),
		slog.String("item_id", w.id.String()))
}

func opAttr(op writeOp) attribute.KeyValue {
	return attribute.String("op", op.String())
}
