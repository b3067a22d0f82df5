// Package auth exposes account registration.
package auth

import (
	authsvc "github.com/amirasaad/walletledger/pkg/service/auth"
	"github.com/amirasaad/walletledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Routes registers the auth endpoints.
func Routes(app *fiber.App, svc *authsvc.Service) {
	app.Post("/register", Register(svc))
}

// Register returns a handler that creates an account with a zero balance.
func Register(svc *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[RegisterRequest](c)
		if input == nil {
			return err
		}
		account, err := svc.Register(c.UserContext(), input.Username, input.Password)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Registration failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "User created", RegisterResponse{
			ID:       account.ID,
			Username: account.Username,
		})
	}
}
