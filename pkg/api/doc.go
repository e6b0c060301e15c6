// Package api defines the public types shared between the engine, its
// steps, and API clients: the closed step-status vocabulary, dataflow and
// step definitions, and the request/response payloads of the HTTP API.
package api
