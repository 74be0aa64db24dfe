// Package models defines the data types shared by the studyx store, backend client, and development server.
//
// The package contains two categories of types:
//
// 1. Store state: values owned by the task store and handed to subscribers as copies
//   - [Task] : A coding exercise with the learner's code and its verdict
//   - [ProgressMap] : Per-task verdict cache keyed by task id
//   - [Verdict] : Tri-state view of a single progress entry
//
// 2. Wire types: request and response bodies of the task and progress endpoints
//   - [SaveRequest] : Body of POST task
//   - [TaskResult] : Body of GET task
//   - [ProgressResult] : Body of GET progress
package models
