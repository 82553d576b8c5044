package database

import (
	"fmt"

	"github.com/valkey-io/valkey-go"
)

type CacheClient valkey.Client

// FACET_CACHE_INDEX (DB 0) holds the distinct genre/decade/station lists.
const FACET_CACHE_INDEX = 0

// Cache returns the shared valkey client, or nil when caching is not
// configured or the server could not be reached. Callers treat nil as a miss.
func (s *DB) Cache() CacheClient {
	s.cacheOnce.Do(func() {
		s.cache = s.initializeCacheDB()
	})
	return s.cache
}

func (s *DB) initializeCacheDB() CacheClient {
	log := s.log.Function("initializeCacheDB")

	if !s.config.CacheEnabled() {
		log.Debug("cache address or port is empty, facet caching disabled")
		return nil
	}

	client, err := valkey.NewClient(
		valkey.ClientOption{
			InitAddress: []string{
				fmt.Sprintf("%s:%d", s.config.DatabaseCacheAddress, s.config.DatabaseCachePort),
			},
			SelectDB: FACET_CACHE_INDEX,
		},
	)
	if err != nil {
		log.Warn("failed to create valkey client, facet caching disabled", "error", err)
		return nil
	}

	log.Info("Connected to valkey", "address", s.config.DatabaseCacheAddress)
	return client
}
