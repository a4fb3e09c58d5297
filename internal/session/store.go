package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/meiziya0402-source/PPT/internal/deck"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// ErrSessionNotFound - сессии нет или она истекла.
var ErrSessionNotFound = errors.New("session not found")

var sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "deck_sessions_active",
	Help: "Number of live editing sessions.",
})

// Factory создает колоду для новой сессии.
type Factory func(sessionID string) *deck.Deck

// Store хранит колоды сессий в памяти. Сессия живет ttl с последнего обращения.
type Store struct {
	items   *gocache.Cache
	ttl     time.Duration
	factory Factory
	logger  *zap.Logger
}

// NewStore создает хранилище. ttl <= 0 - сессии не истекают.
func NewStore(ttl time.Duration, factory Factory, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	cleanup := ttl / 2
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	s := &Store{
		items:   gocache.New(ttl, cleanup),
		ttl:     ttl,
		factory: factory,
		logger:  logger.Named("SessionStore"),
	}
	s.items.OnEvicted(func(id string, _ interface{}) {
		sessionsActive.Dec()
		s.logger.Info("Session closed", zap.String("sessionID", id))
	})
	return s
}

// Create открывает новую сессию со стартовой колодой.
func (s *Store) Create() (string, *deck.Deck) {
	id := uuid.NewString()
	d := s.factory(id)
	s.items.Set(id, d, gocache.DefaultExpiration)
	sessionsActive.Inc()
	s.logger.Info("Session created", zap.String("sessionID", id))
	return id, d
}

// Get возвращает колоду сессии и продлевает ее жизнь.
func (s *Store) Get(id string) (*deck.Deck, error) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	d := v.(*deck.Deck)
	s.items.Set(id, d, gocache.DefaultExpiration)
	return d, nil
}

// Exists проверяет сессию без продления.
func (s *Store) Exists(id string) bool {
	_, ok := s.items.Get(id)
	return ok
}

// Delete закрывает сессию. Удаление отсутствующей сессии - ошибка.
func (s *Store) Delete(id string) error {
	if _, ok := s.items.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.items.Delete(id)
	return nil
}

// Count возвращает число живых сессий.
func (s *Store) Count() int {
	return s.items.ItemCount()
}
