package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencerSupersedes(t *testing.T) {
	s := NewSequencer()
	ctx1, gen1, done1 := s.Begin(context.Background(), "c")
	ctx2, gen2, done2 := s.Begin(context.Background(), "c")
	defer done1()

	assert.ErrorIs(t, ctx1.Err(), context.Canceled)
	assert.NoError(t, ctx2.Err())
	assert.False(t, s.IsCurrent("c", gen1))
	assert.True(t, s.IsCurrent("c", gen2))

	done2()
	assert.ErrorIs(t, ctx2.Err(), context.Canceled)
	assert.False(t, s.IsCurrent("c", gen1))
	assert.Zero(t, s.Len())
}

func TestSequencerReleasesFinishedClients(t *testing.T) {
	s := NewSequencer()
	for i := 0; i < 1000; i++ {
		_, _, done := s.Begin(context.Background(), uuid.NewString())
		done()
	}
	assert.Zero(t, s.Len())
}

func TestSequencerStaleNeverMatchesLaterRequest(t *testing.T) {
	s := NewSequencer()
	_, gen1, done1 := s.Begin(context.Background(), "c")
	_, _, done2 := s.Begin(context.Background(), "c")
	done2()

	// The slot is gone; a fresh request must not reuse the stale generation.
	_, gen3, done3 := s.Begin(context.Background(), "c")
	defer done3()
	assert.NotEqual(t, gen1, gen3)
	assert.False(t, s.IsCurrent("c", gen1))
	assert.True(t, s.IsCurrent("c", gen3))
	done1()
	assert.True(t, s.IsCurrent("c", gen3))
}

func TestSequencerClientsIndependent(t *testing.T) {
	s := NewSequencer()
	ctxA, genA, doneA := s.Begin(context.Background(), "a")
	_, genB, doneB := s.Begin(context.Background(), "b")
	defer doneA()
	defer doneB()

	assert.NoError(t, ctxA.Err())
	assert.True(t, s.IsCurrent("a", genA))
	assert.True(t, s.IsCurrent("b", genB))
	assert.False(t, s.IsCurrent("nobody", 1))
}

func TestSequencerDoneOfStaleKeepsNewest(t *testing.T) {
	s := NewSequencer()
	_, _, done1 := s.Begin(context.Background(), "c")
	ctx2, gen2, done2 := s.Begin(context.Background(), "c")
	defer done2()

	done1()
	assert.NoError(t, ctx2.Err())
	assert.True(t, s.IsCurrent("c", gen2))
}

func TestMiddlewareIssuesCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ClientID(c))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, cookies[0].Value, w.Body.String())
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestMiddlewareKeepsValidCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, ClientID(c))
	})

	id := uuid.NewString()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: id})
	router.ServeHTTP(w, req)

	assert.Equal(t, id, w.Body.String())
	assert.Empty(t, w.Result().Cookies())

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Body.String())
}
