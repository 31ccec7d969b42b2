package config

import "time"

const (
	// NLU request timeout
	RequestTimeout = 30 * time.Second

	// Status server shutdown grace period
	ShutdownTimeout = 10 * time.Second
)
