// internal/workers/rfq/match-suppliers/config.go
package matchsuppliers

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
