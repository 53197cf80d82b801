package instance

import "os"

// GetID returns the process instance identifier used in logs and lock
// ownership. WORKER_ID wins over the platform's DYNO name.
func GetID() string {
	for _, key := range []string{"WORKER_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
