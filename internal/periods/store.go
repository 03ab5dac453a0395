package periods

import (
	"sync"
	"time"

	"github.com/camuig/robot-analytics/internal/trades"
)

// Upload describes the latest successful upload into a bucket.
type Upload struct {
	FileName string
	Rows     int
	LoadedAt time.Time
}

// Store holds one record set per bucket. Every bucket is always present,
// empty until its first upload. Replace is the only writer; the lock is there
// because HTTP handlers read while an upload may be landing.
type Store struct {
	mu      sync.RWMutex
	records map[trades.Bucket][]trades.TradeRecord
	uploads map[trades.Bucket]Upload
}

func NewStore() *Store {
	s := &Store{
		records: make(map[trades.Bucket][]trades.TradeRecord),
		uploads: make(map[trades.Bucket]Upload),
	}
	for _, b := range trades.Buckets() {
		s.records[b] = []trades.TradeRecord{}
	}
	return s
}

// Replace overwrites the bucket's contents entirely. The slice is copied so
// callers may reuse theirs.
func (s *Store) Replace(bucket trades.Bucket, records []trades.TradeRecord, upload Upload) error {
	if _, err := trades.ParseBucket(string(bucket)); err != nil {
		return err
	}

	cp := make([]trades.TradeRecord, len(records))
	copy(cp, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[bucket] = cp
	s.uploads[bucket] = upload
	return nil
}

// Buckets returns the bucket identifiers in declaration order.
func (s *Store) Buckets() []trades.Bucket {
	return trades.Buckets()
}

// Records returns a copy of one bucket's records; unknown buckets are empty.
func (s *Store) Records(bucket trades.Bucket) []trades.TradeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.records[bucket]
	out := make([]trades.TradeRecord, len(src))
	copy(out, src)
	return out
}

// Flatten concatenates all buckets in declaration order.
func (s *Store) Flatten() []trades.TradeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, b := range trades.Buckets() {
		total += len(s.records[b])
	}

	out := make([]trades.TradeRecord, 0, total)
	for _, b := range trades.Buckets() {
		out = append(out, s.records[b]...)
	}
	return out
}

// LastUpload reports the file that populated the bucket, if any.
func (s *Store) LastUpload(bucket trades.Bucket) (Upload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.uploads[bucket]
	return u, ok
}

// HasData reports whether any bucket holds records.
func (s *Store) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, recs := range s.records {
		if len(recs) > 0 {
			return true
		}
	}
	return false
}
