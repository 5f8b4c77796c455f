// Package types provides shared data structures for the ZenCode backend.
//
// Core Types:
//   - ComponentDescriptor: Indexed internal UI component
//   - FileNode: One file of the caller's project snapshot
//   - ChatMessage: A single conversation turn
//   - EditStep, GenerationResult: Structured model output
//   - Session, User: Persisted conversation state and owners
//   - DesignFile, Manifest: Design tokens and approved dependencies
//   - IngestJob: Background indexing job with a three-state lifecycle
//
// Request Types:
//   - GenerateRequest, GenerateResponse: Generation API payloads
//   - QueryRequest, TrainRequest: Retrieval and ingestion API payloads
//   - StreamEvent: WebSocket progress frames
package types
