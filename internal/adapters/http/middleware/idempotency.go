package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"chitfund-ledger/internal/pkg/response"
)

// How long the in-progress lock holds before the handler must finish.
const provisionalLockTTL = 60 * time.Second

type idempEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	CreatedAt  time.Time `json:"created_at"`
}

// Idempotency replays the stored response when a mutating request
// carries an Idempotency-Key already seen for the same route and user.
// The job endpoints mount this so a double-clicked "run dues" button
// charges members once. Requests without the header pass through.
func Idempotency(rdb *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		reqID := c.Get("Idempotency-Key")
		if reqID == "" {
			return c.Next()
		}

		body := c.Body()
		sum := sha256.Sum256(body)
		bhash := hex.EncodeToString(sum[:])

		key := fmt.Sprintf("idemp:%s:%s:%v:%s", c.Method(), c.Path(), c.Locals("userID"), reqID)

		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		entry := idempEntry{
			InProgress: true,
			BodySHA256: bhash,
			CreatedAt:  time.Now().UTC(),
		}
		raw, _ := json.Marshal(entry)

		ok, err := rdb.SetNX(ctx, key, raw, provisionalLockTTL).Result()
		if err != nil {
			return response.Error(c, fiber.StatusServiceUnavailable, "idempotency store unavailable")
		}
		if !ok {
			// Key exists: body must match, and we may be able to replay
			cur, err := loadEntry(ctx, rdb, key)
			if err != nil {
				return response.Error(c, fiber.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if cur.BodySHA256 != bhash {
				return response.Conflict(c, "Idempotency-Key reused with a different body")
			}
			if !cur.InProgress && cur.Code != 0 {
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Status(cur.Code).Send(cur.Body)
			}
			return response.Conflict(c, "request is already in progress")
		}

		if err := c.Next(); err != nil {
			_ = rdb.Del(context.Background(), key).Err()
			return err
		}

		// Only successful outcomes are pinned; a failed run frees the
		// key so the same request can be retried.
		status := c.Response().StatusCode()
		if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
			_ = rdb.Del(context.Background(), key).Err()
			return nil
		}

		final := idempEntry{
			Code:       status,
			Body:       append([]byte(nil), c.Response().Body()...),
			BodySHA256: bhash,
			CreatedAt:  time.Now().UTC(),
		}
		raw, _ = json.Marshal(final)
		_ = rdb.Set(context.Background(), key, raw, ttl).Err()
		return nil
	}
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (*idempEntry, error) {
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var entry idempEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
