package log

import (
	"bytes"
	stdlog "log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer stdlog.SetOutput(os.Stderr)

	tests := []struct {
		name     string
		fn       func()
		expected string
	}{
		{"Printf", func() { Printf("test %s", "printf") }, "test printf"},
		{"Println", func() { Println("test println") }, "test println"},
		{"Errorf", func() { Errorf("bad %d", 7) }, "ERROR bad 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn()
			assert.Contains(t, buf.String(), tt.expected)
			assert.Contains(t, buf.String(), "log_test.go")
		})
	}
}

func TestDebugf(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer stdlog.SetOutput(os.Stderr)
	defer SetDebug(false)

	SetDebug(false)
	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetDebug(true)
	Debugf("shown %d", 2)
	assert.Contains(t, buf.String(), "DEBUG shown 2")
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decoder.log")
	closer := Setup(Options{File: path})
	Printf("to file")
	require.NoError(t, closer.Close())
	SetOutput(os.Stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
