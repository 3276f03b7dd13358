// Package facade exposes every health SDK capability as a named operation
// yielding exactly one Outcome. Requests use catalog identifiers; the facade
// resolves them, invokes the collaborator, checks the response shape and
// surfaces the result.
package facade

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"healthkit-bridge/internal/catalog"
	"healthkit-bridge/internal/collaborator"
	"healthkit-bridge/internal/common/errors"
	"healthkit-bridge/internal/common/logger"
	"healthkit-bridge/internal/common/metrics"
	"healthkit-bridge/internal/common/observability"
	"healthkit-bridge/internal/surface"
	"healthkit-bridge/pkg/registry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Surfacer receives the report of every completed call.
type Surfacer interface {
	Surface(ctx context.Context, r surface.Report)
}

type Facade struct {
	collaborator collaborator.Collaborator
	catalog      *catalog.Catalog
	registry     *registry.Registry
	registrySet  bool
	surfacer     Surfacer
	obs          *observability.Observability
	logger       logger.Logger
}

type Option func(*Facade)

// WithRegistry sets the registry whose response schemas are enforced. A nil
// registry disables schema checks; typed decoding still applies.
func WithRegistry(r *registry.Registry) Option {
	return func(f *Facade) {
		f.registry = r
		f.registrySet = true
	}
}

func WithSurfacer(s Surfacer) Option {
	return func(f *Facade) { f.surfacer = s }
}

func WithObservability(o *observability.Observability) Option {
	return func(f *Facade) { f.obs = o }
}

func WithLogger(l logger.Logger) Option {
	return func(f *Facade) { f.logger = l }
}

// New builds a facade over c. Without options it validates against the
// bundled registry and surfaces through a log-only surfacer.
func New(c collaborator.Collaborator, cat *catalog.Catalog, opts ...Option) *Facade {
	f := &Facade{
		collaborator: c,
		catalog:      cat,
		logger:       logger.NewNoOpLogger(),
	}
	if f.catalog == nil {
		f.catalog = catalog.Default()
	}
	for _, opt := range opts {
		opt(f)
	}
	if !f.registrySet {
		reg, err := registry.Default()
		if err != nil {
			f.logger.Warn("bundled registry unavailable, response schemas not enforced", map[string]interface{}{
				"error": err.Error(),
			})
		}
		f.registry = reg
	}
	if f.surfacer == nil {
		f.surfacer = surface.New(f.logger)
	}
	return f
}

func (f *Facade) Catalog() *catalog.Catalog { return f.catalog }

// call runs one operation end to end. build resolves catalog identifiers into
// the wire request; convert maps the decoded wire response W back to T. The
// outcome is surfaced exactly once, panics included.
func call[W any, T any](
	ctx context.Context,
	f *Facade,
	op string,
	build func(cat *catalog.Catalog) (interface{}, error),
	convert func(cat *catalog.Catalog, w W) (T, error),
) (out Outcome[T]) {
	start := time.Now()
	ctx, span := f.obs.Tracer().Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("healthkit.operation", op)),
	)
	defer func() {
		if r := recover(); r != nil {
			out = failed[T](op, errors.NewCollaboratorPanicError(op, r))
		}
		f.finish(ctx, span, op, out.raw, out.failure, time.Since(start))
	}()

	req, err := build(f.catalog)
	if err != nil {
		return failed[T](op, errors.NewCatalogLookupError(op, err))
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return failed[T](op, errors.NewRequestEncodingError(op, err))
	}

	raw, err := f.collaborator.Invoke(ctx, op, payload)
	if err != nil {
		if stderrors.Is(err, collaborator.ErrUnsupportedOperation) {
			return failed[T](op, errors.NewUnknownOperationError(op, err))
		}
		return failed[T](op, errors.NewInvocationFailedError(op, err))
	}

	if f.registry != nil {
		if _, known := f.registry.Lookup(op); known {
			if err := f.registry.ValidateResponse(op, raw); err != nil {
				return failed[T](op, errors.NewMalformedResponseError(op, err))
			}
		}
	}
	var wire W
	if err := json.Unmarshal(raw, &wire); err != nil {
		return failed[T](op, errors.NewMalformedResponseError(op, err))
	}
	v, err := convert(f.catalog, wire)
	if err != nil {
		return failed[T](op, errors.NewMalformedResponseError(op, err))
	}
	return succeeded(op, v, raw)
}

func (f *Facade) finish(ctx context.Context, span trace.Span, op string, raw json.RawMessage, failure *errors.StandardError, elapsed time.Duration) {
	outcome := "success"
	if failure != nil {
		outcome = "failure"
		span.RecordError(failure)
		span.SetStatus(codes.Error, string(failure.Code))
		span.SetAttributes(attribute.String("healthkit.error_code", string(failure.Code)))
		metrics.FacadeFailuresTotal.WithLabelValues(op, string(failure.Code)).Inc()
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	metrics.FacadeCallsTotal.WithLabelValues(op, outcome).Inc()
	metrics.FacadeCallDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	f.obs.RecordCall(ctx, op, outcome, elapsed)

	f.surface(ctx, surface.Report{
		Operation: op,
		Response:  raw,
		Failure:   failure,
		Duration:  elapsed,
	})
}

// surface hands r to the surfacer. A panicking surfacer is logged; the
// outcome already decided is returned unchanged.
func (f *Facade) surface(ctx context.Context, r surface.Report) {
	defer func() {
		if v := recover(); v != nil {
			f.logger.Error("surfacing panicked", map[string]interface{}{
				"operation": r.Operation,
				"panic":     fmt.Sprint(v),
			})
		}
	}()
	f.surfacer.Surface(ctx, r)
}

func noRequest(*catalog.Catalog) (interface{}, error) { return struct{}{}, nil }

// Go runs fn on its own goroutine. The returned channel yields exactly one
// Outcome and is never closed.
func Go[T any](ctx context.Context, fn func(context.Context) Outcome[T]) <-chan Outcome[T] {
	ch := make(chan Outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- failed[T]("", errors.NewCollaboratorPanicError("", r))
			}
		}()
		ch <- fn(ctx)
	}()
	return ch
}
