package instance

import "os"

const fallbackID = "worker-0"

// GetID identifies the running process in logs and lock ownership.
// QYVE_INSTANCE_ID wins, then the hostname (the pod name on Cloud Run / k8s).
func GetID() string {
	if id := os.Getenv("QYVE_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
