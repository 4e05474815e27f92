// Package config loads ship/shore proxy settings from the process
// environment, with an optional .env file loaded first. Only keys
// under a given prefix (plus a small allow-list) are imported, and
// only when not already set, so a container orchestrator's real
// environment always wins over .env.
package config

import (
	"log"
	"os"
	"strings"
)

// allowList are env keys imported regardless of prefix.
var allowList = map[string]bool{"PORT": true}

// LoadEnv loads KEY=VALUE pairs from the file named name into the
// process environment. Only keys starting with prefix, or named in
// the allow-list, are imported. Missing files are silently ignored -
// .env is an optional convenience, not a requirement.
func LoadEnv(name, prefix string) {
	data, err := os.ReadFile(name)
	if err != nil {
		return
	}
	for _, ln := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(ln)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		i := strings.IndexByte(line, '=')
		if i <= 0 {
			log.Printf("config: malformed line: %s", line)
			continue
		}
		k := strings.TrimSpace(line[:i])
		v := strings.TrimSpace(line[i+1:])
		v = strings.Trim(v, "\"'")
		if !strings.HasPrefix(k, prefix) && !allowList[k] {
			continue
		}
		if os.Getenv(k) == "" {
			_ = os.Setenv(k, v)
		}
	}
}

// Getenv returns the environment value for key, or def if unset or
// empty.
func Getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
