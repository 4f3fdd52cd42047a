package config

import (
	"strings"
)

// StarterConfig returns the annotated configuration written by
// "distbuild init", with every value commented out.
func StarterConfig() string {
	return commentOutConfigValues(string(starterConfig))
}

// commentOutConfigValues comments out every line that sets a value. Blank
// lines, comments and plain table headers are kept so the file still parses.
// Array-of-tables headers are commented out too, since an empty entry would
// not validate.
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Keep blank lines as-is
		if trimmed == "" {
			result = append(result, line)
			continue
		}

		// Keep lines that are already comments
		if strings.HasPrefix(trimmed, "#") {
			result = append(result, line)
			continue
		}

		// Keep section headers (e.g., [project], [compile]) as-is
		if strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "[[") && strings.HasSuffix(trimmed, "]") {
			result = append(result, line)
			continue
		}

		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}
