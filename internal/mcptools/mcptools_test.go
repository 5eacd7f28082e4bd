package mcptools

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RegistersTools(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	svc := &Services{Log: logger}
	server := NewServer("test", svc)
	require.NotNil(t, server)
}

func TestErrResult(t *testing.T) {
	result := errResult("boom")
	require.True(t, result.IsError)
	require.Len(t, result.Content, 1)
}

func TestToJSON(t *testing.T) {
	out := toJSON(map[string]string{"gene": "BRAF"})
	require.Contains(t, out, "BRAF")
}
