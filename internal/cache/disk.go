// Package cache implements the three cache layers spec.md and SPEC_FULL.md
// call for: an on-disk TSV cache with TTL for the curated-biomarker source
// (spec §4.2/§5, grounded on cgi.py's _cache_is_valid/_download_biomarkers/
// _load_biomarkers), a Redis response cache attached to the
// variant-annotation and drug-label clients ([ADDED], grounded on
// pkg/external/cache.go), and an in-memory LRU memo
// for the tumor-ontology catalogue ([ADDED], grounded on golang-lru/v2).
package cache

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/domain"
)

// BiomarkerDiskCache owns the curated-biomarker TSV file: rename-on-write
// atomicity, a seven-day TTL based on mtime, and stale-cache-on-download-
// failure tolerance (spec §5 "shared resources").
type BiomarkerDiskCache struct {
	URL      string
	Dir      string
	FileName string
	MaxAge   time.Duration
	client   *http.Client
	log      *logrus.Logger
}

func NewBiomarkerDiskCache(url, dir string, maxAge time.Duration, log *logrus.Logger) *BiomarkerDiskCache {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		dir = filepath.Join(home, ".cache", "variant-actionability")
	}
	if maxAge == 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &BiomarkerDiskCache{
		URL:      url,
		Dir:      dir,
		FileName: "cgi_biomarkers.tsv",
		MaxAge:   maxAge,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

func (c *BiomarkerDiskCache) path() string {
	return filepath.Join(c.Dir, c.FileName)
}

func (c *BiomarkerDiskCache) isValid() bool {
	info, err := os.Stat(c.path())
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < c.MaxAge
}

// download fetches the TSV and writes it atomically via rename-on-write.
func (c *BiomarkerDiskCache) download(ctx context.Context) error {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("biomarker download: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(c.Dir, c.FileName+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, c.path())
}

// Rows returns the parsed TSV rows, refreshing the cache first if stale.
// On a failed refresh, a pre-existing stale cache is used instead; only
// when no cache file exists at all does this surface a CacheDownloadError.
func (c *BiomarkerDiskCache) Rows(ctx context.Context) ([]map[string]string, error) {
	if !c.isValid() {
		if err := c.download(ctx); err != nil {
			if _, statErr := os.Stat(c.path()); statErr != nil {
				return nil, domain.CacheDownloadError(err)
			}
			if c.log != nil {
				c.log.WithError(err).Warn("biomarker cache refresh failed, using stale cache")
			}
		}
	}

	f, err := os.Open(c.path())
	if err != nil {
		return nil, domain.CacheDownloadError(err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, domain.ParseError("curated-biomarker", err)
	}
	header = trimAll(header)

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // tolerant parse, skip malformed rows
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
