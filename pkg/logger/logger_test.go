package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmapos-api/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, logger.ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel("desconocido"))
}

func TestNew_JSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", Out: &buf})

	sales := logger.Component(l, "sales")
	sales.Info().Str("sale_number", "RCP-20260310-000001").Msg("venta registrada")
	l.Debug().Msg("no debe aparecer")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "sales", entry["component"])
	assert.Equal(t, "RCP-20260310-000001", entry["sale_number"])
	assert.Equal(t, "info", entry["level"])
}
