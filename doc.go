// Package backend provides the ThirtyVoice API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/notes: Voice note lifecycle and the cascading soft-delete
// - internal/reactions: Reaction toggle engine, tag votes, optimistic mirror
// - internal/playback: Client playback session controller
// - internal/telemetry: Listen event recording and dedupe
// - internal/auth: Token issuing and validation
// - internal/database: Database connection and migrations
// - internal/cache: Redis client
// - internal/middleware: HTTP middleware (auth, logging, metrics)
// - internal/metrics: Prometheus collectors

// See the individual package documentation for detailed API reference.
package backend
