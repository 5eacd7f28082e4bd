// QueryCache is a read-through cache over database/sql + lib/pq, distinct
// from AssessmentStore's pgx pool, serving repeat (gene, variant, tumor_type)
// lookups without re-running the pipeline. Grounded on
// internal/mcp/optimization/query_optimizer.go's QueryOptimizer
// (database/sql-driven query cache with a TTL and hit/miss stats),
// generalized from its generic OptimizedQuery shape onto this package's
// assessments table.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/variant-actionability/assessor/internal/domain"
)

type queryCacheEntry struct {
	record    *domain.AssessmentRecord
	expiresAt time.Time
}

// QueryCache serves the most recent assessment for a (gene, variant,
// tumor_type) triple, falling back to a direct SQL query on a cache miss.
type QueryCache struct {
	db  *sql.DB
	log *logrus.Logger
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]queryCacheEntry

	hits   int64
	misses int64
}

// NewQueryCache opens a database/sql connection against dsn using the
// lib/pq driver. ttl of zero defaults to 10 minutes.
func NewQueryCache(dsn string, ttl time.Duration, log *logrus.Logger) (*QueryCache, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening query-cache connection: %w", err)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &QueryCache{db: db, log: log, ttl: ttl, entries: make(map[string]queryCacheEntry)}, nil
}

// NewQueryCacheWithDB wraps an already-open *sql.DB, used by tests to inject
// a sqlmock-backed connection.
func NewQueryCacheWithDB(db *sql.DB, ttl time.Duration, log *logrus.Logger) *QueryCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &QueryCache{db: db, log: log, ttl: ttl, entries: make(map[string]queryCacheEntry)}
}

func cacheKeyFor(gene, variant, tumorType string) string {
	return gene + "|" + variant + "|" + tumorType
}

// Lookup returns the most recent assessment for the triple, preferring the
// in-process cache and falling back to a direct query against the
// assessments table on a miss.
func (q *QueryCache) Lookup(ctx context.Context, gene, variant, tumorType string) (*domain.AssessmentRecord, bool, error) {
	key := cacheKeyFor(gene, variant, tumorType)

	q.mu.Lock()
	entry, ok := q.entries[key]
	q.mu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		q.mu.Lock()
		q.hits++
		q.mu.Unlock()
		return entry.record, true, nil
	}

	q.mu.Lock()
	q.misses++
	q.mu.Unlock()

	query := `
		SELECT id, created_at, request_id, engine_version, assessment
		FROM assessments
		WHERE gene = $1 AND variant = $2 AND tumor_type = $3
		ORDER BY created_at DESC
		LIMIT 1`

	row := q.db.QueryRowContext(ctx, query, gene, variant, tumorType)

	var record domain.AssessmentRecord
	var assessmentJSON []byte
	if err := row.Scan(&record.ID, &record.CreatedAt, &record.RequestID, &record.EngineVersion, &assessmentJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying assessment cache: %w", err)
	}
	if err := json.Unmarshal(assessmentJSON, &record.Assessment); err != nil {
		return nil, false, fmt.Errorf("unmarshaling cached assessment: %w", err)
	}

	q.mu.Lock()
	q.entries[key] = queryCacheEntry{record: &record, expiresAt: time.Now().Add(q.ttl)}
	q.mu.Unlock()

	return &record, false, nil
}

// Stats reports cumulative hit/miss counts for observability.
func (q *QueryCache) Stats() (hits, misses int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hits, q.misses
}

func (q *QueryCache) Close() error {
	return q.db.Close()
}
