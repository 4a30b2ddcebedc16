package config

import (
	"io"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigureLogging sets the gin mode and the global zerolog logger.
//
// LOG_FORMAT=human forces console output, LOG_FORMAT=json forces JSON. When
// unset, debug mode logs human readable and release mode logs JSON.
func (c Config) ConfigureLogging(out io.Writer) {
	gin.SetMode(c.GinMode)

	if out == nil {
		out = os.Stdout
	}
	output := out
	if (c.LogFormat == "" && gin.IsDebugging()) || c.LogFormat == "human" {
		output = zerolog.ConsoleWriter{Out: out}
	}

	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if gin.IsDebugging() && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(output).With().Timestamp().Logger()
}
