package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug": "DEBUG",
		"info":  "INFO",
		"warn":  "WARN",
		"error": "ERROR",
		"bogus": "INFO",
	}
	for in, want := range cases {
		require.Equal(t, want, parseLevel(in).String(), in)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", true)
	l.Debug("hidden")
	l.Info("hello", "player", "abc")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "hello", rec["msg"])
	require.Equal(t, "abc", rec["player"])
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", false)
	ctx := IntoContext(context.Background(), l)
	require.Same(t, l, WithContext(ctx))
	require.NotNil(t, WithContext(context.Background()))
}

func TestInitWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	InitWithFile("info", true, path)
	Info("rotated")
	require.NoError(t, Close())
	require.FileExists(t, path)
	Init("info", false)
}
