// Package ledger exposes the wallet operations of the calling account.
package ledger

import (
	"github.com/amirasaad/walletledger/pkg/config"
	currencysvc "github.com/amirasaad/walletledger/pkg/service/currency"
	ledgersvc "github.com/amirasaad/walletledger/pkg/service/ledger"
	"github.com/amirasaad/walletledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries an optional client-chosen retry key.
const IdempotencyKeyHeader = "Idempotency-Key"

// Routes registers the ledger endpoints. All of them require Basic auth.
//
// Routes:
//   - POST /fund        : add funds to the caller's wallet
//   - POST /pay         : pay another user by username
//   - POST /buy         : buy a catalog product
//   - GET  /bal         : balance, optionally converted with ?currency=
//   - GET  /stmt        : transaction history, most recent first
//   - GET  /purchases   : purchase history, most recent first
func Routes(
	app *fiber.App,
	engine *ledgersvc.Engine,
	converter *currencysvc.Converter,
	authn *common.Authenticator,
	cfg *config.App,
) {
	app.Post("/fund", authn.Protect(Fund(engine))...)
	app.Post("/pay", authn.Protect(Pay(engine))...)
	app.Post("/buy", authn.Protect(Buy(engine))...)
	app.Get("/bal", authn.Protect(Balance(engine, converter, cfg.Ledger.BaseCurrency))...)
	app.Get("/stmt", authn.Protect(Statement(engine))...)
	app.Get("/purchases", authn.Protect(Purchases(engine))...)
}

func callOptions(c *fiber.Ctx) []ledgersvc.CallOption {
	if key := c.Get(IdempotencyKeyHeader); key != "" {
		return []ledgersvc.CallOption{ledgersvc.WithIdempotencyKey(key)}
	}
	return nil
}

func caller(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := common.CurrentAccountID(c)
	if !ok {
		return uuid.Nil, common.ProblemDetailsJSON(c, "Unauthorized", nil, fiber.StatusUnauthorized)
	}
	return id, nil
}

// Fund returns a handler that credits the caller's wallet.
func Fund(engine *ledgersvc.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := caller(c)
		if accountID == uuid.Nil {
			return err
		}
		input, err := common.BindAndValidate[FundRequest](c)
		if input == nil {
			return err // error response already written
		}
		receipt, err := engine.Credit(c.UserContext(), accountID, *input.Amount, callOptions(c)...)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to add funds", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Funds added", BalanceResponse{
			Balance:  receipt.Balance,
			Replayed: receipt.Replayed,
		})
	}
}

// Pay returns a handler that transfers funds to another user.
func Pay(engine *ledgersvc.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := caller(c)
		if accountID == uuid.Nil {
			return err
		}
		input, err := common.BindAndValidate[PayRequest](c)
		if input == nil {
			return err
		}
		receipt, err := engine.Transfer(c.UserContext(), accountID, input.To, *input.Amount, callOptions(c)...)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Payment failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Payment successful", BalanceResponse{
			Balance:  receipt.Balance,
			Replayed: receipt.Replayed,
		})
	}
}

// Buy returns a handler that purchases a catalog product.
func Buy(engine *ledgersvc.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := caller(c)
		if accountID == uuid.Nil {
			return err
		}
		input, err := common.BindAndValidate[BuyRequest](c)
		if input == nil {
			return err
		}
		receipt, err := engine.Purchase(c.UserContext(), accountID, uuid.MustParse(input.ProductID), callOptions(c)...)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Purchase failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Product purchased", PurchaseResponse{
			Balance:    receipt.Balance,
			PurchaseID: receipt.PurchaseID,
			Replayed:   receipt.Replayed,
		})
	}
}

// Balance returns a handler reporting the caller's balance in the base
// currency or, with ?currency=, converted for display.
func Balance(engine *ledgersvc.Engine, converter *currencysvc.Converter, base string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := caller(c)
		if accountID == uuid.Nil {
			return err
		}
		target := c.Query("currency", base)
		code, err := converter.NormalizeCode(target)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid currency", err)
		}
		balance, err := engine.GetBalance(c.UserContext(), accountID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get balance", err)
		}
		converted, err := converter.Convert(c.UserContext(), balance, base, code)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Currency conversion failed", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched", BalanceResponse{
			Balance:  converted,
			Currency: code,
		})
	}
}

// Statement returns a handler listing the caller's transactions.
func Statement(engine *ledgersvc.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := caller(c)
		if accountID == uuid.Nil {
			return err
		}
		records, err := engine.GetStatement(c.UserContext(), accountID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Could not fetch statement", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Statement fetched", toStatement(records))
	}
}

// Purchases returns a handler listing the caller's purchases.
func Purchases(engine *ledgersvc.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := caller(c)
		if accountID == uuid.Nil {
			return err
		}
		purchases, err := engine.ListPurchases(c.UserContext(), accountID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Could not fetch purchases", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Purchases fetched", purchases)
	}
}
