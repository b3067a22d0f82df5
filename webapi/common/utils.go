// Package common holds the response helpers and middleware shared by the
// HTTP handlers.
package common

import (
	"errors"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Kind is the stable domain error kind, when there is one.
	Kind   string `json:"kind,omitempty"`
	Errors any    `json:"errors,omitempty"`
}

var validate = validator.New()

// SuccessResponseJSON writes a Response with the given status.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ProblemDetailsJSON writes err as problem details. The status comes from
// the error kind unless one is given explicitly.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, status ...int) error {
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			pd.Kind = string(de.Kind)
			pd.Detail = de.Message
		} else {
			pd.Detail = err.Error()
		}
	}

	var fe *fiber.Error
	switch {
	case len(status) > 0:
		pd.Status = status[0]
	case errors.As(err, &fe):
		pd.Status = fe.Code
	default:
		pd.Status = ErrorToStatusCode(err)
	}
	if pd.Status >= fiber.StatusInternalServerError && pd.Kind == "" {
		// internal causes are logged, not returned
		pd.Detail = ""
	}

	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(pd.Status).JSON(pd)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var de *domain.Error
	if !errors.As(err, &de) {
		return fiber.StatusInternalServerError
	}
	switch de.Kind {
	case domain.KindInvalidAmount,
		domain.KindValidation,
		domain.KindInsufficientFunds,
		domain.KindSelfTransferForbidden,
		domain.KindRecipientNotFound,
		domain.KindItemNotFound,
		domain.KindDuplicateUsername:
		return fiber.StatusBadRequest
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindDuplicateRequest, domain.KindBalanceConflict:
		return fiber.StatusConflict
	case domain.KindIdempotencyConflict, domain.KindInvalidCatalogState:
		return fiber.StatusUnprocessableEntity
	case domain.KindRateUnavailable:
		return fiber.StatusBadGateway
	case domain.KindStorageUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// Returns a pointer to the struct (populated), or writes an error response and returns nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		return nil, ProblemDetailsJSON(c, "Invalid request body",
			domain.WithMessage(domain.ErrValidation, "request body could not be parsed"))
	}
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			c.Set(fiber.HeaderContentType, "application/problem+json")
			return nil, c.Status(fiber.StatusBadRequest).JSON(ProblemDetails{
				Type:     "about:blank",
				Title:    "Validation failed",
				Status:   fiber.StatusBadRequest,
				Detail:   domain.ErrValidation.Message,
				Kind:     string(domain.KindValidation),
				Instance: c.OriginalURL(),
				Errors:   fields,
			})
		}
		return nil, ProblemDetailsJSON(c, "Validation failed", domain.ErrValidation)
	}
	return &input, nil
}
