package services

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Env override pointing at an external pack; the embedded one is the default.
const promptPackEnv = "PROMPT_PACK_YAML"

//go:embed prompts.yaml
var promptPackFS embed.FS

type promptPack struct {
	Version   string            `yaml:"version"`
	Templates []promptPackEntry `yaml:"templates"`
}

type promptPackEntry struct {
	Name     string `yaml:"name"`
	Agent    string `yaml:"agent"`
	Theme    string `yaml:"theme"`
	Pattern  string `yaml:"pattern"`
	Version  string `yaml:"version"`
	Template string `yaml:"template"`
}

func loadPromptPack() (*promptPack, error) {
	data, err := readPromptPack()
	if err != nil {
		return nil, err
	}
	var pack promptPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("decode prompt pack: %w", err)
	}
	if err := validatePromptPack(&pack); err != nil {
		return nil, err
	}
	return &pack, nil
}

func readPromptPack() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(promptPackEnv)); path != "" {
		return os.ReadFile(path)
	}
	return promptPackFS.ReadFile("prompts.yaml")
}

func validatePromptPack(pack *promptPack) error {
	if len(pack.Templates) == 0 {
		return fmt.Errorf("prompt pack has no templates")
	}
	seen := map[string]bool{}
	for i := range pack.Templates {
		entry := &pack.Templates[i]
		if strings.TrimSpace(entry.Template) == "" {
			return fmt.Errorf("prompt template %d (%s): empty body", i, entry.Name)
		}
		if entry.Agent == "" && entry.Theme == "" && entry.Pattern == "" {
			return fmt.Errorf("prompt template %d (%s): needs an agent or a theme/pattern key", i, entry.Name)
		}
		if entry.Version == "" {
			entry.Version = pack.Version
		}
		key := strings.Join([]string{entry.Agent, entry.Theme, entry.Pattern, entry.Version}, "|")
		if seen[key] {
			return fmt.Errorf("duplicate prompt template key: %s", key)
		}
		seen[key] = true
	}
	return nil
}
