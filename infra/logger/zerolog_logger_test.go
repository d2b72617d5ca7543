package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("clock")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"robot": "R01"})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerLevelFromEnv(t *testing.T) {
	assert.NoError(t, os.Setenv("LOG_LEVEL", "debug"))
	defer func() { assert.NoError(t, os.Unsetenv("LOG_LEVEL")) }()
	l := NewZerologLogger("clock")
	l.Debugf("visible at debug level")
}
