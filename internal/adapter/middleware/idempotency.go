package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Idempotency replays the recorded response for a repeated Idempotency-Key.
// The movement engine treats every accepted request as a new movement (a
// re-sent deposit is a second deposit), so retry protection for clients
// lives here at the transport boundary. Only successful responses are
// recorded: a movement that failed may be retried under the same key.
func Idempotency(db *pgxpool.Pool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("Idempotency-Key")
		if key == "" {
			return c.Next()
		}

		var status int
		var body []byte
		err := db.QueryRow(c.Context(),
			`SELECT response_status, response_body FROM idempotency_keys WHERE key_id = $1`,
			key).Scan(&status, &body)
		switch {
		case err == nil:
			slog.Info("Replaying recorded response", "key", key, "status", status)
			c.Set("X-Idempotency-Hit", "true")
			c.Set("Content-Type", "application/json")
			return c.Status(status).Send(body)
		case !errors.Is(err, pgx.ErrNoRows):
			// A broken lookup must not block the movement itself.
			slog.Error("Idempotency lookup failed, processing without replay", "key", key, "error", err)
		}

		if err := c.Next(); err != nil {
			return err
		}

		status = c.Response().StatusCode()
		if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
			return nil
		}
		body = append([]byte(nil), c.Response().Body()...)
		if _, err := db.Exec(c.Context(),
			`INSERT INTO idempotency_keys (key_id, response_status, response_body) VALUES ($1, $2, $3) ON CONFLICT (key_id) DO NOTHING`,
			key, status, body); err != nil {
			slog.Error("Failed to record idempotent response", "key", key, "error", err)
		}
		return nil
	}
}
