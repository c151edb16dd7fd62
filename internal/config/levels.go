package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/glpi-dashboard-backend/internal/utils"
)

// LoadNameTable reads the technician name table used as the second-tier level
// classifier. The file maps a level tag to the display names known to work
// at that level:
//
//	N1:
//	  - Maria Souza
//	N3:
//	  - João Lima
//
// The result maps each raw name to its level tag ("N1".."N4"). An empty path
// yields an empty table. Names listed under more than one level are rejected;
// names are compared the way the classifier matches them, ignoring case and
// surrounding space.
func LoadNameTable(path string) (map[string]string, error) {
	out := map[string]string{}
	seen := map[string]string{}
	if strings.TrimSpace(path) == "" {
		return out, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level names: %w", err)
	}
	var doc map[string][]string
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse level names: %w", err)
	}
	for level, names := range doc {
		tag := strings.ToUpper(strings.TrimSpace(level))
		switch tag {
		case "N1", "N2", "N3", "N4":
		default:
			return nil, fmt.Errorf("level names: unknown level %q", level)
		}
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			key := utils.LowerTrim(n)
			if prev, dup := seen[key]; dup && prev != tag {
				return nil, fmt.Errorf("level names: %q listed under %s and %s", n, prev, tag)
			}
			seen[key] = tag
			out[n] = tag
		}
	}
	return out, nil
}
