// Package main is the entry point for the ZenCode generation service.
//
// Commands:
//   - serve (default): REST and websocket API on HOST:PORT
//   - ingest --dir <path> --user <id>: index a local checkout synchronously
//   - version
//
// Configuration comes from environment variables (see internal/infrastructure/config);
// --port and --dev override them.
//
// Usage:
//
//	# Production mode
//	LLM_API_KEY=... VECTOR_API_KEY=... ./server serve --port 8000
//
//	# Index a checkout for one user
//	./server ingest --dir ../web --user 2f1c...
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
