package server

import "time"

// Config is the web chat server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// SessionTTL is how long an untouched browser session keeps its
	// conversation. Zero keeps sessions until the process exits.
	SessionTTL time.Duration
}
