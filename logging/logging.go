package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures a Logger
type Options struct {
	// Path of the log file. Empty means console only.
	Path string

	// Debug enables debug entries and mirrors file output to the console
	Debug bool

	// Console receives console output (default os.Stderr)
	Console io.Writer
}

// Logger is the reporting collaborator handed to every component
type Logger struct {
	mu   sync.Mutex
	log  *logrus.Logger
	file *os.File
}

// New opens the log file if one is configured and returns a ready logger
func New(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	l := &Logger{log: logrus.New()}
	l.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.log.SetLevel(logrus.InfoLevel)
	if opts.Debug {
		l.log.SetLevel(logrus.DebugLevel)
	}

	if opts.Path == "" {
		l.log.SetOutput(console)
		return l, nil
	}

	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l.file = f

	// Write logs to both console and file in debug mode
	if opts.Debug {
		l.log.SetOutput(io.MultiWriter(console, f))
	} else {
		l.log.SetOutput(f)
	}

	l.log.Infof("--- panelscan log started at %s ---", time.Now().Format(time.RFC3339))
	return l, nil
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	l := &Logger{log: logrus.New()}
	l.log.SetOutput(io.Discard)
	return l
}

// Close writes the closing banner and closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	l.log.Infof("--- panelscan log closed at %s ---", time.Now().Format(time.RFC3339))
	err := l.file.Close()
	l.file = nil
	l.log.SetOutput(io.Discard)
	return err
}

// DebugEnabled reports whether debug entries are emitted
func (l *Logger) DebugEnabled() bool {
	return l.log.IsLevelEnabled(logrus.DebugLevel)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

// WithFields returns an entry carrying structured fields
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.log.WithFields(fields)
}

// ImageProcessed logs the outcome of loading one file at debug level.
// Failures reach the warn level through the report sinks.
func (l *Logger) ImageProcessed(path string, err error) {
	if err != nil {
		l.log.WithField("path", path).Debugf("FAILED: %v", err)
		return
	}
	l.log.WithField("path", path).Debug("PROCESSED")
}
