// Package services talks to the remote task and progress backend.
//
// # Backend Interface
//
// [Backend] is the narrow contract the task store depends on: one call per REST operation.
// [TaskService] implements it over HTTP and tests substitute an in-memory fake.
//
// # Endpoints
//
//   - GET  {task}?taskId={id} : returns {"correct": bool|null, "code": string}
//   - POST {task}             : body {"taskId", "code", "correct"?}; the response body is ignored
//   - GET  {progress}         : returns {"correct": [int], "incorrect": [int]}
//
// # Transport
//
// [APIService] performs the raw requests and returns undecoded [APIResponse] values.
// [NewHTTPClient] attaches a static bearer token through golang.org/x/oauth2 when one is configured.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAPIRequest] : transport failure, non-2xx status or undecodable body
//   - [shared.ErrTimeout] : the request deadline passed
package services
