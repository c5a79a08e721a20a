package homepage

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads a Homepage services.yaml or bookmarks.yaml file.
type Loader struct {
	filePath string
}

// NewLoader creates a new Homepage loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the configured file path.
func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the file.
func (l *Loader) Load() (Config, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read homepage file: %w", err)
	}
	return Parse(data)
}

// Parse decodes Homepage yaml from memory.
func Parse(data []byte) (Config, error) {
	// Homepage template variables ({{HOMEPAGE_VAR_...}}) are not resolvable here.
	data = stripTemplateVariables(data)

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse homepage yaml: %w", err)
	}
	return config, nil
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
