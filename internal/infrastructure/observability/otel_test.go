package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestParseOTLPHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", nil},
		{"single", "api-key=secret", map[string]string{"api-key": "secret"}},
		{"url encoded", "Authorization=Basic%20dG9rZW4=", map[string]string{"Authorization": "Basic dG9rZW4="}},
		{"several with spaces", " a=1 , b=2", map[string]string{"a": "1", "b": "2"}},
		{"malformed pairs skipped", "novalue,=x,c=3", map[string]string{"c": "3"}},
		{"undecodable kept raw", "k=%zz", map[string]string{"k": "%zz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOTLPHeaders(tt.raw))
		})
	}
}

func TestNewResource_ServiceAttributes(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=test")

	res, err := newResource(context.Background(), Config{ServiceName: "stackit-test", Version: "1.2.3"})
	require.NoError(t, err)

	set := res.Set()
	name, ok := set.Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "stackit-test", name.AsString())

	version, ok := set.Value(attribute.Key("service.version"))
	require.True(t, ok)
	assert.Equal(t, "1.2.3", version.AsString())

	env, ok := set.Value(attribute.Key("deployment.environment"))
	require.True(t, ok)
	assert.Equal(t, "test", env.AsString())
}

func TestInitLogger_DisabledWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	_, logger, err := InitLogger(context.Background(), Config{LogOutput: &buf, LogLevel: slog.LevelInfo})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("Fetched schedule items", slog.String("date", "2025-03-10"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &record))
	assert.Equal(t, "Fetched schedule items", record["msg"])
	assert.Equal(t, "2025-03-10", record["date"])
}

func TestSetup_Disabled(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	tel, err := Setup(context.Background(), Config{LogOutput: &buf})
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)
	require.NotNil(t, tel.MeterProvider)
	require.NotNil(t, tel.LoggerProvider)

	slog.Info("via default")
	assert.Contains(t, buf.String(), "via default")

	assert.NoError(t, tel.Shutdown(context.Background()))
}
