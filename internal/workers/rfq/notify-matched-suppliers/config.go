// internal/workers/rfq/notify-matched-suppliers/config.go
package notifymatchedsuppliers

import "time"

type Config struct {
	EmailEnabled     bool
	FromEmail        string
	PortalBaseURL    string
	ConciergeEnabled bool
	Timeout          time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 20 * time.Second,
	}
}
