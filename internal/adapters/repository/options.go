// Package repository defines the analytics store interface and errors.
package repository

import "time"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithSnapshotInterval sets how often the leaderboard snapshot is rebuilt.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(s *MemStore) {
		if interval > 0 {
			s.snapshotInterval = interval
		}
	}
}

// WithTopCacheSize sets how many leading entries the snapshot caches.
func WithTopCacheSize(size int) Option {
	return func(s *MemStore) {
		if size > 0 {
			s.topCacheSize = size
		}
	}
}
