package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// RateLimit is a single token bucket shared by every caller of the routes it
// guards. The bridge API only listens on loopback, so there is one client.
// perMinute <= 0 disables the limit.
func RateLimit(perMinute, burst int) fiber.Handler {
	if perMinute <= 0 {
		return func(ctx *fiber.Ctx) error { return ctx.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)

	return func(ctx *fiber.Ctx) error {
		if !lim.Allow() {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return ctx.Next()
	}
}
