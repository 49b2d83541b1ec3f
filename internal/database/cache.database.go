package database

import (
	"context"
	"fmt"
	"newsdigest/config"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

// Valkey database index organization. DB 0 is left unused.
const (
	// USER_CACHE_INDEX (DB 1) - users resolved by the auth middleware
	USER_CACHE_INDEX = iota + 1

	// CLIENT_API_CACHE_INDEX (DB 2) - news provider responses
	CLIENT_API_CACHE_INDEX
)

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.Errorf("failed to initialize cache database", "address or port is empty")
	}

	initAddress := []string{fmt.Sprintf("%s:%d", address, port)}
	clients := []struct {
		target *CacheClient
		index  int
		name   string
	}{
		{&s.Cache.User, USER_CACHE_INDEX, "user"},
		{&s.Cache.ClientAPI, CLIENT_API_CACHE_INDEX, "client api"},
	}

	for _, c := range clients {
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: initAddress,
			SelectDB:    c.index,
		})
		if err != nil {
			return log.Err("failed to create valkey client", err, "cache", c.name)
		}
		*c.target = client
	}

	if config.DatabaseCacheReset != -1 {
		go clearCacheDB(config.DatabaseCacheReset, s.Cache)
	}

	return nil
}

func clearCacheDB(index int, cacheDB Cache) {
	log := logger.New("database").File("cache.database").Function("clearCacheDB")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, dbName, ok := cacheDB.byIndex(index)
	if !ok {
		log.Warn("Invalid cache database index", "index", index)
		return
	}

	if err := client.Do(ctx, client.B().Flushdb().Build()).Error(); err != nil {
		log.Er("Failed to clear cache database", err, "index", index, "dbName", dbName)
		return
	}

	log.Info("Successfully cleared cache database", "index", index, "dbName", dbName)
}

func (c Cache) byIndex(index int) (CacheClient, string, bool) {
	switch index {
	case USER_CACHE_INDEX:
		return c.User, "User", c.User != nil
	case CLIENT_API_CACHE_INDEX:
		return c.ClientAPI, "ClientAPI", c.ClientAPI != nil
	default:
		return nil, "", false
	}
}
