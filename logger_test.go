package weir

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoggerInfoWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	w := &Weir{LoggerEnabled: true}
	l := newLogger(w)
	l.Output = &buf

	l.Info("hello world")

	assert.Contains(t, buf.String(), "hello world")
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestLoggerDisabledSuppressesOutput(t *testing.T) {
	var buf bytes.Buffer
	w := &Weir{LoggerEnabled: false}
	l := newLogger(w)
	l.Output = &buf

	l.Error("should not appear")

	assert.Empty(t, buf.String())
}

func TestLoggerFormattedMessage(t *testing.T) {
	var buf bytes.Buffer
	w := &Weir{LoggerEnabled: true}
	l := newLogger(w)
	l.Output = &buf

	l.Warnf("count is %d", 3)

	assert.Contains(t, buf.String(), "count is 3")
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	w := &Weir{LoggerEnabled: true}
	l := newLogger(w)
	l.Output = &buf

	l.Debugj(map[string]interface{}{"key": "value"})

	assert.Contains(t, buf.String(), `"key":"value"`)
}

func TestLoggerPrintIgnoresEnabledFlag(t *testing.T) {
	var buf bytes.Buffer
	w := &Weir{LoggerEnabled: false}
	l := newLogger(w)
	l.Output = &buf

	l.Print("always shown")

	assert.True(t, strings.Contains(buf.String(), "always shown"))
}

func TestLoggerRequestLogsErrorLevelOnErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	w := &Weir{LoggerEnabled: true}
	l := newLogger(w)
	l.Output = &buf

	req := Request{URI: mustParseTestURI(t, "https://example.com/"), Source: "test"}
	status := Status{Kind: StatusError}

	l.logRequest(req, status, 5*time.Millisecond)

	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), "example.com")
}

func mustParseTestURI(t *testing.T, s string) *URI {
	t.Helper()
	u, err := ParseURI(s)
	assert.NoError(t, err)
	return u
}
