// Package http provides the REST and websocket surface of the generation
// service.
//
// Endpoints:
//   - Health: / and /health
//   - Generation: POST /api/generate, GET /api/generate/stream (websocket)
//   - Components: GET /api/components, POST /api/components/query
//   - Template: GET /api/template
//   - Training: POST /api/train, GET /api/train/:id
//   - Users: GET /api/users/me
//
// Failures carry {"status":"error","error":...,"kind":...}; the kind decides
// the status code (InvalidRequest 400, RetrievalFailure and GenerationFailure
// 502, GenerationTimeout 504).
//
// Example Usage:
//
//	handlers := http.NewHandlers(http.Deps{Generator: orch, Searcher: index})
//	handlers.Register(router)
package http
