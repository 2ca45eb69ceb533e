package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/BookFox/internal/pkg/cache"
	"github.com/ManuelReschke/BookFox/internal/pkg/env"
)

var sessionStore *session.Store

// NewSessionStore creates the redis-backed session store. Sessions live in
// redis DB 1 so they never collide with cache keys (DB 0).
func NewSessionStore() *session.Store {
	host, port, password := redisConnection()

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		Expiration:     time.Hour * 1,
		KeyLookup:      "cookie:session_id",
	})

	return sessionStore
}

// redisConnection derives the session storage target from the already
// configured cache client so both always point at the same server.
func redisConnection() (host string, port int, password string) {
	host = "localhost"
	port = 6379
	password = env.GetEnv("CACHE_PASSWORD", "")

	client := cache.GetClient()
	if client == nil {
		return host, port, password
	}
	if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	if p := client.Options().Password; p != "" {
		password = p
	}
	return host, port, password
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionValue stores a key/value pair in the caller's session.
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}

	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue reads a string value from the caller's session; missing
// keys and lookup failures both come back as "".
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	if value, ok := sess.Get(key).(string); ok {
		return value
	}
	return ""
}
