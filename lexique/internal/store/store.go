// Package store provides the data access layer for the paragraph corpus.
//
// The corpus is append-only: paragraphs are inserted and read, never
// updated. Search runs either through the registered regexp() SQL function
// or in-process by the caller; the store exposes both the filtered query and
// the full listing to make the strategies interchangeable.
package store

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"
	"sync"

	"modernc.org/sqlite"
)

// Store wraps the corpus database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// regexpCache holds compiled patterns across regexp() calls. Queries repeat
// the same few patterns per statement, so the cache stays tiny.
var regexpCache sync.Map // pattern string -> *regexp.Regexp

func compileCached(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexpCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexpCache.Store(pattern, re)
	return re, nil
}

// SQLite rewrites `content REGEXP ?` to regexp(pattern, content), so the
// pattern arrives first.
func regexpFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("regexp: want 2 arguments, got %d", len(args))
	}
	pattern, ok := args[0].(string)
	if !ok {
		return int64(0), nil
	}
	content, ok := args[1].(string)
	if !ok {
		return int64(0), nil
	}
	re, err := compileCached(pattern)
	if err != nil {
		return nil, fmt.Errorf("regexp: %w", err)
	}
	if re.MatchString(content) {
		return int64(1), nil
	}
	return int64(0), nil
}

func init() {
	sqlite.MustRegisterDeterministicScalarFunction("regexp", 2, regexpFunc)
}

// SupportsRegexp probes whether REGEXP queries work on this connection.
// Registration happens per process, but a probe keeps strategy selection
// honest if the driver ever changes underneath.
func (s *Store) SupportsRegexp() bool {
	var n int
	err := s.DB.QueryRow(`SELECT 1 WHERE 'probe' REGEXP 'probe'`).Scan(&n)
	return err == nil && n == 1
}
