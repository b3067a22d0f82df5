// Package webapi provides the HTTP surface of the wallet ledger.
// It is organized into sub-packages per concern:
// - auth: account registration
// - ledger: wallet operations of the calling account
// - catalog: products that can be bought
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/walletledger/pkg/app"
	authweb "github.com/amirasaad/walletledger/webapi/auth"
	catalogweb "github.com/amirasaad/walletledger/webapi/catalog"
	"github.com/amirasaad/walletledger/webapi/common"
	ledgerweb "github.com/amirasaad/walletledger/webapi/ledger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		AppName: "wallet-ledger",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			a.Deps.Logger.Error("unhandled request error", "path", c.Path(), "error", err)
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	fiberApp.Use(requestid.New())
	// Uses X-Forwarded-For header when behind a proxy
	fiberApp.Use(limiter.New(limiter.Config{
		Max:          a.Config.RateLimit.MaxRequests,
		Expiration:   a.Config.RateLimit.Window,
		KeyGenerator: clientKey,
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	// Health check endpoint
	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Wallet ledger is running! 🚀")
	})

	authn := common.NewAuthenticator(a.AuthService)
	authweb.Routes(fiberApp, a.AuthService)
	catalogweb.Routes(fiberApp, a.CatalogService, authn)
	ledgerweb.Routes(fiberApp, a.LedgerService, a.CurrencyService, authn, a.Config)
	return fiberApp
}

func clientKey(c *fiber.Ctx) string {
	if forwardedFor := c.Get(fiber.HeaderXForwardedFor); forwardedFor != "" {
		// first hop is the client
		if i := strings.Index(forwardedFor, ","); i != -1 {
			return strings.TrimSpace(forwardedFor[:i])
		}
		return strings.TrimSpace(forwardedFor)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}
