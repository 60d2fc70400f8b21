package model

// Package model defines domain data structures shared by the pipeline stages:
// search candidates, per-track state, and the run aggregate with its status
// enums. Structures carry explicit state transitions so that the CLI and web
// front-ends can render progress from a single snapshot.
