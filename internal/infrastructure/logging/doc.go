// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a *zap.Logger through their constructors and name it
// after themselves (logger.Named("orchestrator")), so every line carries the
// emitting stage.
//
// Example Usage:
//
//	logger := logging.FromSettings("info", false)
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Error("Failed to connect", zap.Error(err))
package logging
