// Package log wraps the standard logger with optional rotating file output
// and a switchable debug level.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger.
type Options struct {
	// File, when set, sends output to a rotating log file instead of stderr.
	File string
	// MaxSizeMB is the rotation threshold for File.
	MaxSizeMB int
	// MaxBackups is the number of rotated files to keep.
	MaxBackups int
	// Debug enables Debugf output.
	Debug bool
}

var debug atomic.Bool

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func init() {
	stdlog.SetFlags(stdlog.LstdFlags | stdlog.Lshortfile)
}

// Setup configures the standard logger. The returned closer releases the log
// file, if any.
func Setup(opts Options) io.Closer {
	debug.Store(opts.Debug)
	stdlog.SetFlags(stdlog.LstdFlags | stdlog.Lshortfile)

	if opts.File == "" {
		stdlog.SetOutput(os.Stderr)
		return nopCloser{}
	}

	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 2
	}
	lj := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     28, // days
		Compress:   true,
	}
	stdlog.SetOutput(lj)
	return lj
}

// SetOutput redirects the standard logger.
func SetOutput(w io.Writer) {
	stdlog.SetOutput(w)
}

// SetDebug toggles Debugf output.
func SetDebug(on bool) {
	debug.Store(on)
}

// Printf calls the standard log.Printf()
func Printf(format string, v ...interface{}) {
	stdlog.Output(2, fmt.Sprintf(format, v...))
}

// Println calls the standard log.Println()
func Println(v ...interface{}) {
	stdlog.Output(2, fmt.Sprintln(v...))
}

// Errorf logs with an ERROR prefix.
func Errorf(format string, v ...interface{}) {
	stdlog.Output(2, "ERROR "+fmt.Sprintf(format, v...))
}

// Debugf logs with a DEBUG prefix when debug output is enabled.
func Debugf(format string, v ...interface{}) {
	if !debug.Load() {
		return
	}
	stdlog.Output(2, "DEBUG "+fmt.Sprintf(format, v...))
}

// Fatalf logs and exits.
func Fatalf(format string, v ...interface{}) {
	stdlog.Output(2, fmt.Sprintf(format, v...))
	os.Exit(1)
}
