package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-spp/noisemap/internal/config"
)

func TestPrintConfig_RedactsKey(t *testing.T) {
	c := &config.Config{
		Input:   config.InputConfig{Path: "data/noise.csv"},
		Geocode: config.GeocodeConfig{APIKey: "secret-key", City: "Москва"},
		Log:     config.LogConfig{Level: "info", Format: "json"},
	}

	var buf bytes.Buffer
	require.NoError(t, printConfig(&buf, c))

	out := buf.String()
	assert.NotContains(t, out, "secret-key")
	assert.Contains(t, out, "***")
	assert.Contains(t, out, "city: Москва")
	assert.Contains(t, out, "path: data/noise.csv")
	assert.Equal(t, "secret-key", c.Geocode.APIKey)
}
