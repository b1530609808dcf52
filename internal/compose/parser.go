// Package compose extracts per-service build declarations from Compose
// text using an indentation-aware line scan. It is intentionally a
// restricted subset sufficient for build-directive extraction, not a
// general YAML parser: flow-style or tab-indented documents may be
// under-parsed.
package compose

import (
	"strings"

	"github.com/codewithboateng/dockscout/internal/ir"
)

// HasBuildDirective reports whether the text declares any build: key.
// The retrieval layer uses it to decide whether a compose file counts.
func HasBuildDirective(content string) bool {
	return strings.Contains(content, "build:") || strings.Contains(content, "build :")
}

// ParseServices scans Compose text and returns the services that declare
// a build directive. Services without one are dropped.
func ParseServices(content string) []ir.ComposeService {
	var (
		services   []ir.ComposeService
		cur        *ir.ComposeService
		inServices bool
		inBuild    bool   // inside the current service's build: block
		listKey    string // "ports" or "depends_on" while consuming nested lines
	)

	flush := func() {
		if cur != nil && cur.HasBuild {
			services = append(services, *cur)
		}
		cur = nil
		inBuild = false
		listKey = ""
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))

		// Region tracking: any top-level key opens or closes the
		// services region.
		if indent == 0 {
			flush()
			inServices = strings.TrimSuffix(trimmed, ":") == "services" && strings.HasSuffix(trimmed, ":")
			continue
		}
		if !inServices {
			continue
		}

		// New service record: 2-space-indented key ending in ":".
		if indent == 2 && strings.HasSuffix(trimmed, ":") && !strings.HasPrefix(trimmed, "-") {
			flush()
			cur = &ir.ComposeService{Name: strings.TrimSuffix(trimmed, ":")}
			continue
		}
		if cur == nil {
			continue
		}

		// Direct service sub-keys.
		if indent == 4 {
			inBuild = false
			listKey = ""
			if strings.HasPrefix(trimmed, "-") {
				continue
			}
			key, value := splitKey(trimmed)
			switch key {
			case "build":
				cur.HasBuild = true
				if value != "" {
					cur.BuildContext = value
				} else {
					inBuild = true
				}
			case "ports":
				listKey = "ports"
			case "depends_on":
				listKey = "depends_on"
			}
			continue
		}

		// Deeper lines belong to the pending build block or list key.
		if indent > 4 {
			if strings.HasPrefix(trimmed, "-") {
				item := strings.Trim(strings.TrimSpace(strings.TrimPrefix(trimmed, "-")), `"'`)
				switch listKey {
				case "ports":
					cur.Ports = append(cur.Ports, item)
				case "depends_on":
					cur.DependsOn = append(cur.DependsOn, item)
				}
				continue
			}
			key, value := splitKey(trimmed)
			if inBuild {
				switch key {
				case "context":
					cur.BuildContext = value
				case "dockerfile":
					cur.Dockerfile = value
				}
				continue
			}
			// Long-form depends_on lists service names as map keys with
			// condition sub-keys.
			if listKey == "depends_on" && indent == 6 && value == "" && key != "" {
				cur.DependsOn = append(cur.DependsOn, key)
			}
		}
	}
	flush()
	return services
}

func splitKey(s string) (key, value string) {
	i := strings.Index(s, ":")
	if i == -1 {
		return "", ""
	}
	key = strings.TrimSpace(s[:i])
	value = strings.Trim(strings.TrimSpace(s[i+1:]), `"'`)
	return key, value
}
