package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/swiftcourier/trackingserver/config"
)

func TestSetup_Level(t *testing.T) {
	closer, err := Setup(config.LogConfig{Level: "debug"})
	require.NoError(t, err)
	require.NoError(t, closer.Close())
	require.Equal(t, log.DebugLevel, log.GetLevel())

	_, err = Setup(config.LogConfig{Level: "chatty"})
	require.Error(t, err)
}

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	closer, err := Setup(config.LogConfig{Level: "info", File: path})
	require.NoError(t, err)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	log.Info("hello file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello file")
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetLevel(log.InfoLevel)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	handler := middleware.RequestID(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/track/NOPE", nil))

	out := buf.String()
	require.Contains(t, out, "status=404")
	require.Contains(t, out, "path=/api/track/NOPE")
	require.Contains(t, out, "request_id=")
}
