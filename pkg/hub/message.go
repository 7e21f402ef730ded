// Package hub fans messages out to websocket clients through a single
// owner goroutine.
package hub

// Message is one pre-encoded JSON text frame.
type Message []byte
