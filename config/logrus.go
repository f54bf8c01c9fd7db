package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger создает логгер по настройкам; неизвестный уровень заменяется на info
func NewLogger(level, format string, out io.Writer) *logrus.Logger {
	logg := logrus.New()
	if format == "text" {
		logg.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logg.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logg.SetLevel(lvl)
	if out == nil {
		out = os.Stdout
	}
	logg.SetOutput(out)
	return logg
}

// LogError пишет ошибку с контекстом вызова
func LogError(logger logrus.FieldLogger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
