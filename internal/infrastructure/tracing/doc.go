/*
Package tracing provides lightweight request tracing.

# Overview

Spans follow a request from the HTTP edge through every generation stage and
out to the LLM and vector index. Finished spans are buffered and written to
the structured log by a single collector goroutine.

# Usage

	tracer := tracing.New("zencode", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracer.Trace(ctx, "retrieve", func(ctx context.Context) error {
		return retrieve(ctx)
	})

# Propagation

Outbound calls copy the context into headers with InjectTraceContext:
- X-Trace-ID: Unique identifier for entire request flow
- X-Span-ID: Identifier for current operation
*/
package tracing
