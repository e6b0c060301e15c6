// Package server exposes the HTTP API: registering dataflow definitions,
// triggering and scheduling runs, and inspecting run state.
package server
