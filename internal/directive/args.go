package directive

import (
	"encoding/json"
	"strings"

	"Loremaster/server/internal/interfaces"
)

// DecodeArgs parses a directive's argument text. JSON objects are the
// primary form; anything that fails JSON decoding falls back to line-based
// "key: value" splitting where every value stays a plain string.
func DecodeArgs(raw string) interfaces.DetailMap {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return interfaces.DetailMap{}
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		return interfaces.NormalizeDetails(decoded)
	}

	args := interfaces.DetailMap{}
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}
		args[key] = value
	}
	return args
}
