package instance

import (
	"os"

	"github.com/angelmondragon/orderstock/pkg/env"
)

// GetID returns the process instance identifier: an explicit override, the
// platform dyno name, the hostname, then "local".
func GetID() string {
	if id := env.Get("", "ORDERSTOCK_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
