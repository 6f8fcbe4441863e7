// Command unidao-login signs in to a UniversityDAO auth server with a local
// key and prints the session token.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/term"

	"github.com/universitydao/walletauth/adapters/wallet"
	"github.com/universitydao/walletauth/client"
	"github.com/universitydao/walletauth/internal/config"
	"github.com/universitydao/walletauth/internal/logging"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatalf("Login failed: %v", err)
	}
}

// run logs in and writes the session token to stdout. Notices go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("unidao-login", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", "http://localhost:9000", "auth server base URL")
	keystorePath := fs.String("keystore", "", "path to a V3 keystore file")
	appName := fs.String("app", config.DefaultAppName, "application name in the signed message")
	verbose := fs.Bool("v", false, "log debug output to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w, err := loadWallet(*keystorePath)
	if err != nil {
		return fmt.Errorf("failed to load wallet: %w", err)
	}

	logger := logging.Nop()
	if *verbose {
		logger = logging.NewSlogLogger(logging.NewJSON(stderr, "debug"))
	}

	notifier := client.NotifierFunc(func(n client.Notice) {
		fmt.Fprintf(stderr, "%s: %s\n", n.Title, n.Description)
	})

	api := client.NewHTTPAuthAPI(*server, &http.Client{Timeout: 30 * time.Second})
	manager := client.NewManager(w, api, notifier, logger, *appName)
	manager.Start()
	defer manager.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	session, err := manager.Login(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, session.JWT)
	return nil
}

// loadWallet decrypts the keystore, prompting for its passphrase, or falls
// back to UNIDAO_PRIVATE_KEY.
func loadWallet(path string) (*wallet.KeyWallet, error) {
	if path == "" {
		hexKey := os.Getenv("UNIDAO_PRIVATE_KEY")
		if hexKey == "" {
			return nil, fmt.Errorf("either -keystore or UNIDAO_PRIVATE_KEY is required")
		}
		return wallet.FromHex(hexKey)
	}

	passphrase := os.Getenv("UNIDAO_KEYSTORE_PASSWORD")
	if passphrase == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "Keystore passphrase: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("failed to read passphrase: %w", err)
		}
		passphrase = string(raw)
	}

	return wallet.FromKeystore(path, passphrase)
}
