package session

import (
	"testing"
	"time"

	"github.com/meiziya0402-source/PPT/internal/deck"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(ttl time.Duration) *Store {
	return NewStore(ttl, func(id string) *deck.Deck {
		return deck.New(deck.Options{Topic: id})
	}, zap.NewNop())
}

func TestStore_CreateGetDelete(t *testing.T) {
	s := newTestStore(time.Hour)

	id, d := s.Create()
	require.NotEmpty(t, id)
	require.NotNil(t, d)
	assert.Len(t, d.Slides(), 3)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Same(t, d, got)
	assert.Equal(t, 1, s.Count())

	require.NoError(t, s.Delete(id))
	_, err = s.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, s.Delete(id), ErrSessionNotFound)
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	s := newTestStore(time.Hour)
	id1, d1 := s.Create()
	id2, d2 := s.Create()

	assert.NotEqual(t, id1, id2)
	assert.NotSame(t, d1, d2)
}

func TestStore_IdleExpiry(t *testing.T) {
	s := newTestStore(50 * time.Millisecond)
	id, _ := s.Create()

	// обращения продлевают сессию
	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		_, err := s.Get(id)
		require.NoError(t, err)
	}

	time.Sleep(80 * time.Millisecond)
	assert.False(t, s.Exists(id))
	_, err := s.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
