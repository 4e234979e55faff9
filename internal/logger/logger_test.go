package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level string, format OutputFormat, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	logger = nil
	InitLogger(level, format)
	fn()
	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:     "info log",
			level:    "info",
			logFn:    func() { Info("fetching numpy-1.8.0-1.egg") },
			contains: []string{"fetching numpy-1.8.0-1.egg", "level=INFO"},
		},
		{
			name:     "debug hidden at info",
			level:    "info",
			logFn:    func() { Debug("cache hit") },
			excludes: []string{"cache hit"},
		},
		{
			name:     "debug with fields",
			level:    "debug",
			logFn:    func() { DebugfWithFields(Fields{"key": "a.egg"}, "chunk %d", 3) },
			contains: []string{"chunk 3", "key=a.egg", "level=DEBUG"},
		},
		{
			name:     "warn hides info",
			level:    "warn",
			logFn:    func() { Info("quiet"); Warn("loud", Fields{"n": 2}) },
			contains: []string{"loud", "n=2"},
			excludes: []string{"quiet"},
		},
		{
			name:     "error with fields",
			level:    "error",
			logFn:    func() { ErrorfWithFields(Fields{"opcode": "remove"}, "can't find meta data for: %s", "b.egg") },
			contains: []string{"can't find meta data for: b.egg", "opcode=remove", "level=ERROR"},
		},
		{
			name:     "success",
			level:    "info",
			logFn:    func() { Success("transaction committed") },
			contains: []string{"transaction committed", "status=success"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t, tt.level, FormatText, tt.logFn)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tt.excludes {
				assert.NotContains(t, out, notWant)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	out := captureOutput(t, "info", FormatJSON, func() {
		Info("installed", Fields{"key": "a-1.0-1.egg", "step": 4})
	})

	assert.Contains(t, out, `"msg":"installed"`)
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"key":"a-1.0-1.egg"`)
	assert.Contains(t, out, `"step":4`)
}

func TestSetOutputFormatKeepsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	logger = nil
	InitLogger("warn", FormatText)
	SetOutputFormat(FormatJSON)
	Info("dropped")
	Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}

func TestGetLoggerInitializesIfNil(t *testing.T) {
	logger = nil
	assert.NotPanics(t, func() {
		assert.NotNil(t, GetLogger())
	})
}

func TestMergeFieldsLaterWins(t *testing.T) {
	attrs := mergeFields(Fields{"a": 1}, Fields{"a": 2, "b": true})
	got := map[string]interface{}{}
	for i := 0; i < len(attrs); i += 2 {
		got[attrs[i].(string)] = attrs[i+1]
	}
	assert.Equal(t, map[string]interface{}{"a": 2, "b": true}, got)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("Debug").String())
	assert.Equal(t, "WARN", ParseLevel("warning").String())
	assert.Equal(t, "INFO", ParseLevel("bogus").String())
}
