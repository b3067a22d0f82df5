package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/amirasaad/walletledger/pkg/app"
	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cli struct {
	app      *app.App
	out      io.Writer
	password func(username string) (string, error)
}

type command struct {
	name  string
	args  string
	nargs int
	// authed commands prompt for the password of args[0]
	authed bool
	run    func(c *cli, ctx context.Context, caller *domain.Account, args []string) error
}

var commands = []command{
	{name: "register", args: "<username>", nargs: 1, run: (*cli).register},
	{name: "fund", args: "<username> <amount>", nargs: 2, authed: true, run: (*cli).fund},
	{name: "pay", args: "<username> <to> <amount>", nargs: 3, authed: true, run: (*cli).pay},
	{name: "buy", args: "<username> <product_id>", nargs: 2, authed: true, run: (*cli).buy},
	{name: "balance", args: "<username> [currency]", nargs: 1, authed: true, run: (*cli).balance},
	{name: "statement", args: "<username>", nargs: 1, authed: true, run: (*cli).statement},
	{name: "purchases", args: "<username>", nargs: 1, authed: true, run: (*cli).purchases},
	{name: "reconcile", args: "<username>", nargs: 1, authed: true, run: (*cli).reconcile},
	{name: "add-product", args: "<username> <name> <price> [description]", nargs: 3, authed: true, run: (*cli).addProduct},
	{name: "products", args: "", nargs: 0, run: (*cli).products},
}

var errUsage = errors.New("invalid arguments")

func (c *cli) run(ctx context.Context, args []string) error {
	name, args := args[0], args[1:]
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if len(args) < cmd.nargs {
			return fmt.Errorf("%w, usage: %s %s", errUsage, cmd.name, cmd.args)
		}
		var caller *domain.Account
		if cmd.authed {
			var err error
			if caller, err = c.login(ctx, args[0]); err != nil {
				return err
			}
		}
		return cmd.run(c, ctx, caller, args)
	}
	usage(c.out)
	return fmt.Errorf("unknown command: %s", name)
}

func (c *cli) login(ctx context.Context, username string) (*domain.Account, error) {
	password, err := c.password(username)
	if err != nil {
		return nil, err
	}
	return c.app.AuthService.Authenticate(ctx, username, password)
}

func (c *cli) printf(attr color.Attribute, format string, a ...any) {
	_, _ = color.New(attr).Fprintf(c.out, format+"\n", a...)
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.WithMessage(domain.ErrInvalidAmount, "invalid amount: "+s)
	}
	return amount, nil
}

func (c *cli) register(ctx context.Context, _ *domain.Account, args []string) error {
	password, err := c.password(args[0])
	if err != nil {
		return err
	}
	account, err := c.app.AuthService.Register(ctx, args[0], password)
	if err != nil {
		return err
	}
	c.printf(color.FgGreen, "Account created: %s (%s)", account.Username, account.ID)
	return nil
}

func (c *cli) fund(ctx context.Context, caller *domain.Account, args []string) error {
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	receipt, err := c.app.LedgerService.Credit(ctx, caller.ID, amount)
	if err != nil {
		return err
	}
	c.printf(color.FgGreen, "Added %s. New balance: %s", amount.StringFixed(2), receipt.Balance.StringFixed(2))
	return nil
}

func (c *cli) pay(ctx context.Context, caller *domain.Account, args []string) error {
	amount, err := parseAmount(args[2])
	if err != nil {
		return err
	}
	receipt, err := c.app.LedgerService.Transfer(ctx, caller.ID, args[1], amount)
	if err != nil {
		return err
	}
	c.printf(color.FgGreen, "Paid %s to %s. New balance: %s",
		amount.StringFixed(2), args[1], receipt.Balance.StringFixed(2))
	return nil
}

func (c *cli) buy(ctx context.Context, caller *domain.Account, args []string) error {
	itemID, err := uuid.Parse(args[1])
	if err != nil {
		return domain.WithMessage(domain.ErrValidation, "invalid product id: "+args[1])
	}
	receipt, err := c.app.LedgerService.Purchase(ctx, caller.ID, itemID)
	if err != nil {
		return err
	}
	c.printf(color.FgGreen, "Purchase %s recorded. New balance: %s",
		receipt.PurchaseID, receipt.Balance.StringFixed(2))
	return nil
}

func (c *cli) balance(ctx context.Context, caller *domain.Account, args []string) error {
	base := c.app.Config.Ledger.BaseCurrency
	target := base
	if len(args) > 1 {
		target = args[1]
	}
	code, err := c.app.CurrencyService.NormalizeCode(target)
	if err != nil {
		return err
	}
	balance, err := c.app.LedgerService.GetBalance(ctx, caller.ID)
	if err != nil {
		return err
	}
	converted, err := c.app.CurrencyService.Convert(ctx, balance, base, code)
	if err != nil {
		return err
	}
	c.printf(color.FgCyan, "Balance: %s %s", converted.StringFixed(2), code)
	return nil
}

func (c *cli) statement(ctx context.Context, caller *domain.Account, _ []string) error {
	c.printf(color.Bold, "%-6s %12s %12s  %s", "KIND", "AMOUNT", "BALANCE", "TIMESTAMP")
	return c.app.LedgerService.StreamStatement(ctx, caller.ID, func(r domain.TransactionRecord) error {
		attr := color.FgGreen
		if r.Kind == domain.EntryDebit {
			attr = color.FgRed
		}
		c.printf(attr, "%-6s %12s %12s  %s",
			r.Kind, r.Amount.StringFixed(2), r.ResultingBalance.StringFixed(2), r.Timestamp.Format("2006-01-02 15:04:05"))
		return nil
	})
}

func (c *cli) purchases(ctx context.Context, caller *domain.Account, _ []string) error {
	purchases, err := c.app.LedgerService.ListPurchases(ctx, caller.ID)
	if err != nil {
		return err
	}
	if len(purchases) == 0 {
		c.printf(color.FgYellow, "No purchases")
		return nil
	}
	for _, p := range purchases {
		c.printf(color.FgCyan, "%s  item=%s  %s", p.ID, p.ItemID, p.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (c *cli) reconcile(ctx context.Context, caller *domain.Account, _ []string) error {
	rec, err := c.app.LedgerService.Reconcile(ctx, caller.ID)
	if err != nil {
		return err
	}
	if !rec.Consistent {
		c.printf(color.FgRed, "MISMATCH: stored %s, replayed %s over %d records",
			rec.Balance.StringFixed(2), rec.Replayed.StringFixed(2), rec.Records)
		return fmt.Errorf("balance of %s does not match its history", caller.Username)
	}
	c.printf(color.FgGreen, "OK: balance %s matches %d records", rec.Balance.StringFixed(2), rec.Records)
	return nil
}

func (c *cli) addProduct(ctx context.Context, _ *domain.Account, args []string) error {
	price, err := parseAmount(args[2])
	if err != nil {
		return err
	}
	var description string
	if len(args) > 3 {
		description = args[3]
	}
	item, err := c.app.CatalogService.AddItem(ctx, args[1], price, description)
	if err != nil {
		return err
	}
	c.printf(color.FgGreen, "Product added: %s (%s) at %s", item.Name, item.ID, item.Price.StringFixed(2))
	return nil
}

func (c *cli) products(ctx context.Context, _ *domain.Account, _ []string) error {
	items, err := c.app.CatalogService.ListItems(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		c.printf(color.FgCyan, "%s  %-20s %10s  %s", it.ID, it.Name, it.Price.StringFixed(2), it.Description)
	}
	return nil
}
