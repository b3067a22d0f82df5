package common

import (
	"github.com/amirasaad/walletledger/pkg/domain"
	authsvc "github.com/amirasaad/walletledger/pkg/service/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/google/uuid"
)

const (
	accountKey = "account"
	realm      = `Basic realm="wallet"`
)

// Authenticator guards routes with HTTP Basic credentials. The basicauth
// middleware parses the header and the resolve step checks the credentials
// against stored accounts.
type Authenticator struct {
	parse   fiber.Handler
	resolve fiber.Handler
}

// NewAuthenticator creates an Authenticator backed by authSvc.
func NewAuthenticator(authSvc *authsvc.Service) *Authenticator {
	return &Authenticator{
		parse: basicauth.New(basicauth.Config{
			Realm: "wallet",
			Authorizer: func(user, pass string) bool {
				return user != "" && pass != ""
			},
			Unauthorized: func(c *fiber.Ctx) error {
				c.Set(fiber.HeaderWWWAuthenticate, realm)
				return ProblemDetailsJSON(c, "Unauthorized",
					domain.WithMessage(domain.ErrUnauthorized, "missing or invalid Authorization header"))
			},
		}),
		resolve: func(c *fiber.Ctx) error {
			username, _ := c.Locals("username").(string)
			password, _ := c.Locals("password").(string)
			account, err := authSvc.Authenticate(c.UserContext(), username, password)
			if err != nil {
				c.Set(fiber.HeaderWWWAuthenticate, realm)
				return ProblemDetailsJSON(c, "Unauthorized", err)
			}
			c.Locals(accountKey, account)
			return c.Next()
		},
	}
}

// Protect returns the handler chain for a route that requires a caller.
func (a *Authenticator) Protect(h fiber.Handler) []fiber.Handler {
	return []fiber.Handler{a.parse, a.resolve, h}
}

// CurrentAccount returns the account resolved by the Authenticator.
func CurrentAccount(c *fiber.Ctx) (*domain.Account, bool) {
	a, ok := c.Locals(accountKey).(*domain.Account)
	return a, ok
}

// CurrentAccountID returns the id of the calling account.
func CurrentAccountID(c *fiber.Ctx) (uuid.UUID, bool) {
	a, ok := CurrentAccount(c)
	if !ok {
		return uuid.Nil, false
	}
	return a.ID, true
}
