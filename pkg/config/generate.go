package config

import (
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/ddkbuild/ddkinit/pkg/errors"
)

const configHeader = `# ddkinit configuration
# Place this file in the DDK workspace root as .ddkinit.toml.
# All values are optional; uncomment to override the defaults.

`

// GenerateConfigContent renders the default configuration as a TOML file
// with every value commented out, ready to be edited by the user.
func GenerateConfigContent() (string, error) {
	data, err := toml.Marshal(Default())
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to marshal default config")
	}
	return configHeader + commentOutConfigValues(string(data)), nil
}

// commentOutConfigValues comments out every assignment line, keeping
// blank lines, comments, and section headers as-is.
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			result = append(result, line)
			continue
		}

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			result = append(result, line)
			continue
		}

		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}
