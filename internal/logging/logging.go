package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options mirrors the logging section of the config file.
type Options struct {
	Level  string
	Format string
	Output string
}

// New builds a logger from opts. Invalid values fall back to info level,
// text format and stdout, with a warning on the returned logger.
func New(opts Options) *logrus.Logger {
	log := logrus.New()

	var output io.Writer
	var warnings []string
	switch strings.ToLower(opts.Output) {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			warnings = append(warnings, "failed to open log file "+opts.Output+", using stdout: "+err.Error())
			output = os.Stdout
		} else {
			output = file
		}
	}
	log.SetOutput(output)

	switch strings.ToLower(opts.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		warnings = append(warnings, "invalid log level "+opts.Level+", using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	for _, w := range warnings {
		log.Warn(w)
	}
	return log
}
