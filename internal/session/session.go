// Package session identifies browsers by a client id cookie and orders
// overlapping prediction requests from the same client.
package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CookieName = "client_id"
	contextKey = "client_id"
	cookieAge  = 365 * 24 * 60 * 60
)

// Middleware makes sure every request carries a client id, issuing a new
// cookie when the browser has none or an invalid one.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(CookieName)
		if err != nil || !validID(id) {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CookieName, id, cookieAge, "/", "", false, true)
		}
		c.Set(contextKey, id)
		c.Next()
	}
}

// ClientID returns the id set by Middleware, or "anonymous" outside it.
func ClientID(c *gin.Context) string {
	if id := c.GetString(contextKey); id != "" {
		return id
	}
	return "anonymous"
}

type slot struct {
	gen    uint64
	cancel context.CancelFunc
}

// Sequencer hands out generations per client. Starting a new generation
// cancels the previous one, and only the newest may publish. Generations are
// unique across clients so a slot can be released once its request is done.
type Sequencer struct {
	mu      sync.Mutex
	next    uint64
	clients map[string]*slot
}

func NewSequencer() *Sequencer {
	return &Sequencer{clients: map[string]*slot{}}
}

// Begin supersedes any in-flight request for clientID. The returned context is
// cancelled when a newer request begins or when done is called.
func (s *Sequencer) Begin(parent context.Context, clientID string) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if prev, ok := s.clients[clientID]; ok {
		prev.cancel()
	}
	s.next++
	gen := s.next
	s.clients[clientID] = &slot{gen: gen, cancel: cancel}
	s.mu.Unlock()

	done := func() {
		cancel()
		s.mu.Lock()
		if cur, ok := s.clients[clientID]; ok && cur.gen == gen {
			delete(s.clients, clientID)
		}
		s.mu.Unlock()
	}
	return ctx, gen, done
}

// IsCurrent reports whether gen is the newest request for clientID that has
// not finished yet.
func (s *Sequencer) IsCurrent(clientID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.clients[clientID]
	return ok && sl.gen == gen
}

// Len is the number of clients with a request in flight.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
