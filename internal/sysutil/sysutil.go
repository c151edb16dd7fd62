// Package sysutil holds process-level helpers used by the entrypoint: log
// level selection and build version lookup.
package sysutil

import (
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
)

// SetLogLevel sets zerolog's global level from LOG_LEVEL and returns it.
// Accepts debug, info, warn/warning, error, fatal, panic and disabled in any
// case; anything else means info.
func SetLogLevel(lvl string) zerolog.Level {
	s := strings.ToLower(strings.TrimSpace(lvl))
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || level == zerolog.TraceLevel || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return level
}

// FirstNonEmpty returns the first value that is not blank, or "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// BuildVersion reports the main module version stamped by the Go toolchain,
// or "dev" for local builds.
func BuildVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			return s.Value[:12]
		}
	}
	return "dev"
}
