// Package api implements the HTTP REST API and WebSocket server for irkeyd.
//
// This package provides:
//   - REST endpoints for remote and keymap management
//   - Text/plain attribute reads and writes mirroring the filesystem-style
//     configuration surface (protocol, device, command, keycode)
//   - Manual signal injection through the translation pipeline
//   - Signal log queries with filtering and pagination
//   - WebSocket hub for real-time translation event broadcasts
//   - Middleware stack (request ID, logging, recovery, CORS, body limits)
//
// # Architecture
//
// The API server sits between management tools and the remote registry.
// Mutations go straight to the registry, which reserves key capabilities on
// the virtual input endpoints. Translation events produced by the receiver
// are pushed to the hub and broadcast to subscribed WebSocket clients.
//
// # Graceful Degradation
//
// The server operates without the receiver or the signal log — remote and
// keymap management always works; POST /translate and GET /signals return
// 503 when their backing component is not configured.
package api
