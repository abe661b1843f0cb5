package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/skypass/config"
)

// New builds a logger from cfg. Unknown levels fall back to info.
func New(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}
	log := logrus.New()
	log.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

// Setup configures the standard logger the same way New does and returns it.
func Setup(cfg config.LogConfig) *logrus.Logger {
	std := logrus.StandardLogger()
	configured := New(cfg, os.Stdout)
	std.SetLevel(configured.GetLevel())
	std.SetFormatter(configured.Formatter)
	std.SetOutput(configured.Out)
	return std
}
