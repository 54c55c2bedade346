// Package handler provides HTTP request handlers for the maestro API.
//
// Each handler struct wraps one service and exposes its operations as
// endpoints; routing lives in cmd/server using "METHOD /path" mux
// patterns. Handlers stay thin: decode, delegate, encode.
//
// # Response Format
//
// Successful responses wrap their payload in a data envelope via
// WriteData; errors go through MapServiceError, which converts service
// sentinels and validation failures to RFC 9457 Problem Details with the
// API's error codes. DecodeJSON rejects unknown fields so typos in
// request bodies fail loudly.
package handler
