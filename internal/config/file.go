package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileEnvVar names an optional YAML file of settings. Keys are the
// environment variable names; environment variables win over the file.
//
//	SERVER_PORT: 9090
//	DATABASE_URL: ${DATABASE_URL}
//	TRUSTED_PROXIES: [10.0.0.0/8, 192.168.0.0/16]
const FileEnvVar = "CONFIG_FILE"

// readFile loads a settings file as flat strings. ${VAR} references are
// expanded before parsing and lists become comma-separated values.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
		case []any:
			parts := make([]string, len(v))
			for i, p := range v {
				parts[i] = fmt.Sprint(p)
			}
			out[k] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("config file key %s: nested values are not supported", k)
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out, nil
}
