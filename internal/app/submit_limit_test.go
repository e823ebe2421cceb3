package app

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"

	u "cvbuilder/internal/utils"
)

type memStore struct {
	sync.RWMutex
	m map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{m: make(map[string][]byte)}
}

func (s *memStore) Get(key string) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()
	val, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	return val, nil
}

func (s *memStore) Set(key string, val []byte, exp time.Duration) error {
	s.Lock()
	s.m[key] = val
	s.Unlock()
	return nil
}

func (s *memStore) Delete(key string) error {
	s.Lock()
	delete(s.m, key)
	s.Unlock()
	return nil
}

func (s *memStore) Reset() error {
	s.Lock()
	s.m = make(map[string][]byte)
	s.Unlock()
	return nil
}

func (s *memStore) Close() error { return nil }

func TestSubmitRateLimitMiddleware(t *testing.T) {
	cfg := u.Config{}
	cfg.RateLimiter.SubmitLimit = 2
	cfg.RateLimiter.Interval = time.Hour

	rateLimitStore = newMemStore()
	t.Cleanup(func() { rateLimitStore = nil })

	app := fiber.New()
	app.Post("/submit", submitRateLimitMiddleware(cfg), func(c *fiber.Ctx) error { return c.SendString("ok") })

	makeReq := func(agent string) *http.Request {
		req := httptest.NewRequest("POST", "/submit", nil)
		req.Header.Set("User-Agent", agent)
		req.RemoteAddr = "1.2.3.4:5678"
		return req
	}

	for i := 0; i < 2; i++ {
		resp, err := app.Test(makeReq("test-agent"), -1)
		if err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 but got %d", resp.StatusCode)
		}
	}

	resp, err := app.Test(makeReq("test-agent"), -1)
	if err != nil {
		t.Fatalf("third request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 but got %d", resp.StatusCode)
	}

	// another client has its own window
	resp, err = app.Test(makeReq("other-agent"), -1)
	if err != nil {
		t.Fatalf("other client request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 for other client but got %d", resp.StatusCode)
	}
}

func TestSubmitRateLimitMiddleware_DisabledPassesThrough(t *testing.T) {
	app := fiber.New()
	app.Post("/submit", submitRateLimitMiddleware(u.Config{}), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/submit", nil), -1)
		if err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 but got %d", resp.StatusCode)
		}
	}
}

func TestNewRateLimitStore_UsesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := u.Config{}
	cfg.Cache.RedisHost = mr.Addr()

	store := newRateLimitStore(cfg)
	defer store.Close()

	if err := store.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("k") {
		t.Fatalf("expected key to be written to redis")
	}
}

func TestNewRateLimitStore_FallsBackToMemory(t *testing.T) {
	cfg := u.Config{}
	cfg.Cache.RedisHost = "127.0.0.1:1"

	store := newRateLimitStore(cfg)
	defer store.Close()

	if err := store.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("memory store set: %v", err)
	}
	got, err := store.Get("k")
	if err != nil || string(got) != "v" {
		t.Fatalf("expected memory store to return value, got %q err=%v", got, err)
	}
}
