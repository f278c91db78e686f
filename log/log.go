package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeptore/beatportdl/config"
	"github.com/xeptore/beatportdl/constant"
)

func FromConfig(conf config.Log) zerolog.Logger {
	level, err := zerolog.ParseLevel(conf.Level)
	if nil != err {
		panic("invalid logging level: " + conf.Level)
	}

	switch strings.ToLower(conf.Format) {
	case "json":
		return newLogger(os.Stderr, level)
	case "pretty":
		return newLogger(console(), level)
	default:
		panic("invalid logging format: " + conf.Format)
	}
}

// NewDefault is used until the configuration is loaded.
func NewDefault() zerolog.Logger {
	return newLogger(console(), zerolog.InfoLevel)
}

func console() io.Writer {
	return zerolog.ConsoleWriter{ //nolint:exhaustruct
		Out:          os.Stderr,
		TimeFormat:   time.RFC3339,
		TimeLocation: time.UTC,
	}
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.
		New(w).
		Hook(callerStackHook{}).
		With().
		Timestamp().
		Str("version", constant.Version).
		Str("compile_time", constant.CompileTime).
		Logger().
		Level(level)
}
