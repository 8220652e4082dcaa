package muroorcli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/saif-almayahi/muroor/internal/apiapp"
	"github.com/saif-almayahi/muroor/internal/envutil"
	"github.com/saif-almayahi/muroor/internal/security"
)

var ErrUsage = errors.New("usage")

func Execute(args []string) error {
	if len(args) < 1 {
		return usageError()
	}

	switch args[0] {
	case "setup":
		return runSetup(args[1:])
	case "run":
		return runCommand(args[1:])
	default:
		return usageError()
	}
}

func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: muroor setup --master-password <password> [--addr :8080] [--force]")
	fmt.Fprintln(w, "       muroor run")
}

func usageError() error {
	return fmt.Errorf("%w: muroor <setup|run> [...]", ErrUsage)
}

func isHelpArg(arg string) bool {
	switch arg {
	case "help", "-h", "--help":
		return true
	}
	return false
}

func runSetup(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	masterPass := fs.String("master-password", "", "control panel master password")
	addr := fs.String("addr", ":8080", "listen address for the api")
	envPath := fs.String("env-file", ".env", "path to .env file")
	force := fs.Bool("force", false, "overwrite existing env file")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return usageError()
		}
		return err
	}

	if *masterPass != "" {
		if _, err := security.HashPIN(*masterPass); err != nil {
			return fmt.Errorf("invalid master password: %w", err)
		}
	}

	values := map[string]string{
		"MASTER_PASSWORD": *masterPass,
		"API_ADDR":        *addr,
	}

	if err := envutil.WriteDotEnv(*envPath, values, *force); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *envPath)
	return nil
}

func runCommand(args []string) error {
	if len(args) == 1 && isHelpArg(args[0]) {
		return usageError()
	}
	if len(args) != 0 {
		return fmt.Errorf("%w: usage: muroor run", ErrUsage)
	}

	if err := envutil.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := apiapp.DefaultConfigFromEnv()
	if err := apiapp.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
