// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var once sync.Once

// Init sets up the global logger once; later calls are ignored
func Init(appName, logLevel string) {
	if appName == "" {
		appName = "profiling-bundler"
	}
	if logLevel == "" {
		logLevel = "INFO"
	}
	once.Do(func() {
		initLogger(os.Stdout, appName, logLevel)
		log.Info().Str("level", strings.ToUpper(logLevel)).Msg("Logger initialized!")
	})
}

func initLogger(out io.Writer, appName, logLevel string) {
	zerolog.SetGlobalLevel(parseLevel(logLevel))

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "02-01-2006 15:04:05.000",
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("%-6s", i))
		},
		FieldsExclude: []string{"applicationName"},
		PartsOrder: []string{
			"applicationName",
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		},
	}).With().Timestamp().Caller().Str("applicationName", appName).Logger()

	// file:line instead of the full path
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		parts := strings.Split(file, "/")
		return parts[len(parts)-1] + ":" + strconv.Itoa(line)
	}
}

// parseLevel maps DEBUG/INFO/WARN/ERROR/FATAL/PANIC/DISABLED; unknown levels fall back to INFO
func parseLevel(logLevel string) zerolog.Level {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	case "PANIC":
		return zerolog.PanicLevel
	case "DISABLED":
		return zerolog.Disabled
	default:
		log.Warn().Msgf("Incorrect log level %q, defaulting to INFO", logLevel)
		return zerolog.InfoLevel
	}
}
