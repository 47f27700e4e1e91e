package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"toolbridge/internal/domain"
	"toolbridge/internal/infra/tracer"
)

// Dispatcher is the single entry point for tool calls. Whatever happens
// downstream, Dispatch returns an Envelope with exactly one of data and
// error set; it never panics and never leaks a raw backend error.
type Dispatcher struct {
	tools  domain.ToolExecutor
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the given tool lookup.
func NewDispatcher(tools domain.ToolExecutor, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{tools: tools, logger: logger}
}

// Schemas exposes the advertised tool list for the protocol layer.
func (d *Dispatcher) Schemas() []domain.ToolSchema {
	return d.tools.Schemas()
}

// Dispatch executes one tool call. Each call gets a ULID so log lines
// and spans from the same invocation correlate.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) (env domain.Envelope) {
	callID := ulid.Make().String()
	start := time.Now()

	ctx, span := tracer.StartSpan(ctx, "dispatch."+name,
		trace.WithAttributes(
			tracer.StringAttr("tool.name", name),
			tracer.StringAttr("call.id", callID),
		))
	defer span.End()

	logger := d.logger.With("call_id", callID, "tool", name)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during dispatch",
				"panic", r, "stack", string(debug.Stack()))
			env = domain.Fail(domain.KindInternal, "internal error", false)
		}
	}()

	t, err := d.tools.Get(name)
	if err != nil {
		logger.Warn("unknown tool requested")
		return d.fail(span, err)
	}

	data, err := t.Execute(ctx, args)
	if err != nil {
		kind, _ := domain.Classify(err)
		logger.Warn("tool call failed",
			"kind", string(kind), "error", err, "duration", time.Since(start))
		return d.fail(span, err)
	}

	tracer.SetOK(span)
	logger.Info("tool call completed", "duration", time.Since(start))
	return domain.OK(data)
}

// fail converts an error into its envelope form. Unclassified errors are
// reported as internal with a generic message; the real error stays in
// the logs.
func (d *Dispatcher) fail(span trace.Span, err error) domain.Envelope {
	tracer.RecordError(span, err)
	kind, retryable := domain.Classify(err)
	msg := err.Error()
	if kind == domain.KindInternal {
		msg = "internal error"
	}
	return domain.Fail(kind, msg, retryable)
}
