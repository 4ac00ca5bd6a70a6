package temporalx

import (
	"os"
	"strings"
)

// Config carries the Temporal connection settings. An empty Address
// disables Temporal entirely: NewClient returns nil and the durable
// workflow path reports itself unavailable instead of failing startup.
type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string
}

func LoadConfig() Config {
	return Config{
		Address:   strings.TrimSpace(os.Getenv("TEMPORAL_ADDRESS")),
		Namespace: orDefault(os.Getenv("TEMPORAL_NAMESPACE"), "caselens"),
		TaskQueue: orDefault(os.Getenv("TEMPORAL_TASK_QUEUE"), "caselens"),

		ClientCertPath: strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_CERT_PATH")),
		ClientKeyPath:  strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_KEY_PATH")),
		ClientCAPath:   strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_CA_PATH")),
	}
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
