// Package obs sets up the package-level logger shared across sqlmongo, in
// the same pattern cert-lv-graphoscope's logger.go follows: zerolog to a
// console writer in development, to a lumberjack-rotated file in
// production, switched on the loaded Config's Environment field.
package obs

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sqlmongo-engine/sqlmongo/internal/config"
)

// Log is the shared logger. It defaults to a development console writer
// so library callers that never call Setup still get readable output.
var Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

// Setup reconfigures Log from cfg. In production it writes to a
// lumberjack-rotated file; otherwise it writes to the console.
func Setup(cfg *config.Config) error {
	if cfg.Environment == "prod" {
		Log = zerolog.New(&lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   true,
		}).With().Timestamp().Logger()
	} else {
		Log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

// Component returns a child logger tagged with the component name. The
// top-level sqlmongo package uses it to scope its log lines; engine/lowering
// and engine/sqlfrontend do not log.
func Component(name string) zerolog.Logger {
	return Log.With().Str("component", name).Logger()
}
