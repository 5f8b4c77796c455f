/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics for the generation service:
HTTP traffic, per-stage pipeline latency, LLM and vector index calls, the
degraded paths that do not fail a request (parse, reconcile, persist) and
ingestion jobs.

Each Metrics value owns its own registry, so tests and multiple servers in
one process never collide on registration.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "retrieve")
	// ... perform stage ...
	timer.Stop("success")

	metrics.RecordDegraded("parse")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

All methods are safe on a nil *Metrics.
*/
package monitoring
