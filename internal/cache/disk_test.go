package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestBiomarkerDiskCache_DownloadsAndParsesTSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Gene\tAlteration\tDrug\nBRAF\tV600E\tVemurafenib\nKRAS\tG12D\t\n"))
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	dc := NewBiomarkerDiskCache(server.URL, t.TempDir(), time.Hour, logger)
	rows, err := dc.Rows(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "BRAF", rows[0]["Gene"])
	require.Equal(t, "Vemurafenib", rows[0]["Drug"])
}

func TestBiomarkerDiskCache_StaleCacheUsedOnDownloadFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte("Gene\tAlteration\nBRAF\tV600E\n"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	dir := t.TempDir()

	dc := NewBiomarkerDiskCache(server.URL, dir, time.Hour, logger)
	_, err := dc.Rows(t.Context())
	require.NoError(t, err)

	// Force staleness, then let the refresh fail: the stale file must still
	// be served rather than erroring.
	dc.MaxAge = 0
	rows, err := dc.Rows(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "BRAF", rows[0]["Gene"])
}

func TestBiomarkerDiskCache_NoCacheAndDownloadFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	dc := NewBiomarkerDiskCache(server.URL, t.TempDir(), time.Hour, logger)
	_, err := dc.Rows(t.Context())
	require.Error(t, err)
}
