package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tbourn/glpi-dashboard-backend/internal/config"
)

// LoggerOutput is the writer stack behind the process logger. Close flushes
// and releases the rotated file, if any.
type LoggerOutput struct {
	file *lumberjack.Logger
}

// Close releases the log file. Safe on a nil receiver.
func (o *LoggerOutput) Close() error {
	if o == nil || o.file == nil {
		return nil
	}
	return o.file.Close()
}

// NewLogger builds the process logger and installs it as zerolog's global
// log.Logger. Output goes to stdout (JSON, or a console writer when
// LOG_PRETTY is set) and, when LOG_FILE is set, also as JSON into a
// size-rotated file.
func NewLogger(cfg config.Config) (zerolog.Logger, *LoggerOutput) {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg config.Config, stdout io.Writer) (zerolog.Logger, *LoggerOutput) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var console io.Writer = stdout
	if cfg.LogPretty {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}

	out := &LoggerOutput{}
	w := console
	if cfg.LogFile.Path != "" {
		out.file = &lumberjack.Logger{
			Filename:   cfg.LogFile.Path,
			MaxSize:    cfg.LogFile.MaxSizeMB,
			MaxBackups: cfg.LogFile.MaxBackups,
			MaxAge:     cfg.LogFile.MaxAgeDays,
			Compress:   true,
		}
		w = zerolog.MultiLevelWriter(console, out.file)
	}

	lg := zerolog.New(w).With().
		Timestamp().
		Str("service", cfg.OTEL.ServiceName).
		Logger()
	log.Logger = lg
	return lg, out
}
