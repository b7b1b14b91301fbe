package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"":        "info",
		"DEBUG":   "debug",
		" warn ":  "warn",
		"warning": "warn",
		"error":   "error",
		"verbose": "info",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeLevel(in), "level %q", in)
	}
}

func TestWithServiceNameKeepsExplicitValue(t *testing.T) {
	t.Setenv("SERVICE_NAME", "chatline-api")

	fields := withServiceName(Fields{"service_name": "custom"})
	assert.Equal(t, "custom", fields["service_name"])

	fields = withServiceName(nil)
	assert.Equal(t, "chatline-api", fields["service_name"])
}

type captureLogger struct {
	infos []any
}

func (c *captureLogger) Debug(args ...any)                 {}
func (c *captureLogger) Info(args ...any)                  { c.infos = append(c.infos, args...) }
func (c *captureLogger) Warn(args ...any)                  {}
func (c *captureLogger) Error(args ...any)                 {}
func (c *captureLogger) Debugf(format string, args ...any) {}
func (c *captureLogger) Infof(format string, args ...any)  {}
func (c *captureLogger) Warnf(format string, args ...any)  {}
func (c *captureLogger) Errorf(format string, args ...any) {}

func TestInfoWithFieldsFallsBackToPlainLogger(t *testing.T) {
	prev := Log()
	defer SetLogger(prev)

	c := &captureLogger{}
	SetLogger(c)
	InfoWithFields("hello", Fields{"k": "v"})

	assert.Equal(t, []any{"hello"}, c.infos)
}
