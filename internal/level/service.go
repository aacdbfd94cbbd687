// Package level resolves island levels from the external leveling service's
// table, with a short TTL cache so gate checks don't hit the database on
// every island enter/exit.
package level

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/skyisle/islandfly/internal/persist"
	"go.uber.org/zap"
)

const (
	cacheTTL     = 30 * time.Second
	queryTimeout = 3 * time.Second
)

type Service struct {
	repo  *persist.LevelRepo
	cache *gocache.Cache
	log   *zap.Logger
}

func New(repo *persist.LevelRepo, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(cacheTTL, time.Minute),
		log:   log,
	}
}

// IslandLevel returns the island's level, 0 when the island has not been
// scored yet. Implements flight.Leveler.
func (s *Service) IslandLevel(world string, owner uuid.UUID) (int64, error) {
	key := world + "/" + owner.String()
	if v, ok := s.cache.Get(key); ok {
		return v.(int64), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	lvl, found, err := s.repo.Level(ctx, world, owner)
	if err != nil {
		return 0, err
	}
	if !found {
		lvl = 0
	}
	s.cache.Set(key, lvl, gocache.DefaultExpiration)
	return lvl, nil
}
