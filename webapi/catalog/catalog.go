// Package catalog exposes the product catalog.
package catalog

import (
	catalogsvc "github.com/amirasaad/walletledger/pkg/service/catalog"
	"github.com/amirasaad/walletledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductRequest represents the request body for adding a product.
type ProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Description string           `json:"description" validate:"max=1024"`
}

// Routes registers the catalog endpoints. Listing is public; adding a
// product requires an authenticated caller.
func Routes(app *fiber.App, svc *catalogsvc.Service, authn *common.Authenticator) {
	app.Get("/product", List(svc))
	app.Post("/product", authn.Protect(Create(svc))...)
}

// Create returns a handler that adds a product to the catalog.
func Create(svc *catalogsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[ProductRequest](c)
		if input == nil {
			return err
		}
		item, err := svc.AddItem(c.UserContext(), input.Name, *input.Price, input.Description)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to add product", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Product added", item)
	}
}

// List returns a handler listing every product.
func List(svc *catalogsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListItems(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list products", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Products fetched", items)
	}
}
