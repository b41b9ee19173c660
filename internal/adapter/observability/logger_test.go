package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-career-guide/internal/config"
)

func TestSetupLogger_DevAndProd(t *testing.T) {
	assert.NotNil(t, SetupLogger(config.Config{AppEnv: "dev", OTELServiceName: "svc"}))
	assert.NotNil(t, SetupLogger(config.Config{AppEnv: "prod", OTELServiceName: "svc"}))
}

func TestNewLogger_FieldsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	lg := NewLogger(&buf, config.Config{AppEnv: "prod", OTELServiceName: "career"})
	lg.Debug("hidden")
	lg.Info("visible", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "visible", line["msg"])
	assert.Equal(t, "career", line["service"])
	assert.Equal(t, "prod", line["env"])
	assert.Equal(t, "v", line["k"])

	buf.Reset()
	NewLogger(&buf, config.Config{AppEnv: "test"}).Info("quiet")
	assert.Empty(t, buf.String())

	buf.Reset()
	NewLogger(&buf, config.Config{AppEnv: "dev"}).Debug("loud")
	assert.Contains(t, buf.String(), "loud")
}
