package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/amirasaad/walletledger/infra/initializer"
	"github.com/amirasaad/walletledger/pkg/app"
	"github.com/amirasaad/walletledger/pkg/config"
	"github.com/fatih/color"
	"golang.org/x/term"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}

	cfg, err := config.Load(".env")
	if err != nil {
		color.Red("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	ctx := context.Background()
	deps, err := initializer.InitializeDependencies(ctx, cfg)
	if err != nil {
		color.Red("Failed to initialize dependencies: %v", err)
		os.Exit(1)
	}
	defer deps.Close() //nolint:errcheck

	c := &cli{
		app:      app.New(deps, cfg),
		out:      os.Stdout,
		password: promptPassword,
	}
	if err := c.run(ctx, os.Args[1:]); err != nil {
		color.Red("%v", err)
		_ = deps.Close()
		os.Exit(1)
	}
}

func promptPassword(username string) (string, error) {
	fmt.Printf("Password for %s: ", username)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: cli <command> [arguments]")
	_, _ = fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", c.name, c.args)
	}
}
