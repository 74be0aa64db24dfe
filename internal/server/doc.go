// Package server provides the development backend: HTTP routing, middleware and the task handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
// Middleware applies to handlers registered after it was added, which keeps /metrics outside bearer auth.
//
// # Endpoints
//
//   - GET  /task?taskId=N         : stored code and verdict; never-saved tasks answer {"correct":null,"code":""}
//   - POST /task                  : validated [models.SaveRequest]; a missing verdict keeps the stored one
//   - GET  /task/{taskId}/history : every accepted save for the task
//   - GET  /progress              : sorted correct and incorrect id lists
//   - GET  /metrics               : Prometheus exposition when a registry is configured
//
// Errors are JSON bodies of the form {"detail": "..."}, which the task client surfaces verbatim.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
