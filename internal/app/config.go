package app

import (
	"os"
	"strings"

	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/utils"
)

// Config carries the cross-cutting toggles the app wires into services
// and the router. Clients read their own connection settings from the
// environment in their constructors.
type Config struct {
	Port        string
	Environment string
	Version     string

	AnalysisConcurrent bool
	SetupEnabled       bool
	RunServer          bool
	RunWorker          bool

	CMSTestURN string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:        utils.GetEnv("PORT", "8080", log),
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "", log),

		AnalysisConcurrent: utils.GetEnvAsBool("ANALYSIS_CONCURRENT", false, log),
		SetupEnabled:       utils.GetEnvAsBool("SETUP_ENABLED", false, log),
		RunServer:          utils.GetEnvAsBool("RUN_SERVER", true, log),
		RunWorker:          utils.GetEnvAsBool("RUN_WORKER", false, log),

		CMSTestURN: utils.GetEnv("CMS_TEST_URN", "", log),
	}
}

// requiredEnv names every variable the pipeline cannot run without.
var requiredEnv = []string{
	"SOURCE_GCS_BUCKET_NAME",
	"PROCESSED_GCS_BUCKET_NAME",
	"SECTIONS_GCS_BUCKET_NAME",
	"DOCUMENTAI_PROJECT_ID",
	"DOCUMENTAI_PROCESSOR_ID",
	"OPENAI_API_KEY",
	"CMS_BASE_URL",
	"CMS_FUNCTION_KEY",
	"CMS_USERNAME",
	"CMS_PASSWORD",
}

// ValidateEnv returns the names of required variables that are unset.
// The health endpoint reports these instead of probing dependencies
// that are known to be misconfigured.
func ValidateEnv() []string {
	var missing []string
	for _, key := range requiredEnv {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
