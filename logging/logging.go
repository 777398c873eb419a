// Package logging configures where the components' loggers write.
package logging

import (
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Configuration struct {
	// Path of the log file, logs are written only to
	// stderr when empty
	Path       string `yaml:"Path"`
	MaxSizeMB  int    `yaml:"MaxSizeMB" validate:"min=0"`
	MaxBackups int    `yaml:"MaxBackups" validate:"min=0"`
	MaxAgeDays int    `yaml:"MaxAgeDays" validate:"min=0"`
	Compress   bool   `yaml:"Compress"`
}

var (
	mutex  sync.Mutex
	output io.Writer = os.Stderr
	file   *lumberjack.Logger
)

// New creates a logger writing to the configured output.
func New() *log.Logger {
	mutex.Lock()
	defer mutex.Unlock()

	l := log.New()
	l.SetOutput(output)
	return l
}

// Configure makes the loggers created afterwards write to the
// rotated log file in addition to stderr.
func Configure(config *Configuration) {
	mutex.Lock()
	defer mutex.Unlock()

	if config == nil || len(config.Path) == 0 {
		return
	}
	maxSize := config.MaxSizeMB
	if maxSize == 0 {
		maxSize = 50
	}
	file = &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    maxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAgeDays,
		Compress:   config.Compress,
	}
	output = io.MultiWriter(os.Stderr, file)
	log.SetOutput(output)
}

// Close closes the log file, if any.
func Close() error {
	mutex.Lock()
	defer mutex.Unlock()

	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	output = os.Stderr
	log.SetOutput(output)
	return err
}
