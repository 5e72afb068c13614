package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/adminpanel/internal/api"
	"github.com/jask/adminpanel/internal/config"
	"github.com/jask/adminpanel/internal/logging"
	"github.com/jask/adminpanel/internal/prefs"
	"github.com/jask/adminpanel/internal/secrets"
	"github.com/jask/adminpanel/internal/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "adminpanel: %v\n", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred closes flush the log file.
func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	vault, err := secrets.Open("")
	if err != nil {
		return err
	}

	if len(args) > 0 {
		switch args[0] {
		case "login":
			return login(cfg, vault, args[1:])
		case "logout":
			return logout(cfg, vault, args[1:])
		}
	}

	fs := flag.NewFlagSet("adminpanel", flag.ExitOnError)
	view := fs.String("view", "", `open a view link, e.g. "payments?status=paid&page=2"`)
	_ = fs.Parse(args)

	logger, closer, err := logging.ToFile(cfg.Log.Path, cfg.Log.Level, "adminpanel")
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer closer.Close()

	token := resolveToken(cfg, vault, logger)
	if token == "" {
		return errors.New("no API token: run `adminpanel login` or set $" + cfg.API.TokenEnv)
	}
	if exp, ok, err := api.TokenExpiry(token); err != nil {
		logger.Warn("token is not a JWT", "err", err)
	} else if ok && time.Now().After(exp) {
		return fmt.Errorf("API token expired at %s: run `adminpanel login`", exp.Format(time.RFC3339))
	}

	client, err := api.New(cfg.API.BaseURL, api.Options{Token: token, Timeout: cfg.API.Timeout, Logger: logger})
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}

	views, err := prefs.LoadViews()
	if err != nil {
		logger.Warn("load saved views", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app, err := tui.New(ctx, tui.ResourcesFrom(client.Entities()), tui.Options{
		UI:           cfg.UI,
		FetchTimeout: cfg.API.Timeout,
		Logger:       logger,
		View:         *view,
		Views:        views,
		SaveViews:    true,
		Identity:     client.BaseURL(),
	})
	if err != nil {
		return err
	}

	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		logger.Error("program exited", "err", err)
		return err
	}
	return nil
}

// resolveToken prefers the environment, then the stored session, then the
// config file. A session saved for another API base URL is skipped.
func resolveToken(cfg config.Config, vault *secrets.Store, logger *slog.Logger) string {
	if env := strings.TrimSpace(cfg.API.TokenEnv); env != "" {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	sess, err := vault.Get(cfg.API.Profile)
	switch {
	case errors.Is(err, secrets.ErrNotFound):
	case err != nil:
		logger.Warn("read session store", "err", err)
	case sess.BaseURL != "" && strings.TrimRight(sess.BaseURL, "/") != strings.TrimRight(cfg.API.BaseURL, "/"):
		logger.Warn("stored session is for another API", "profile", cfg.API.Profile, "session_url", sess.BaseURL)
	default:
		return sess.Token
	}
	return strings.TrimSpace(cfg.API.Token)
}

func login(cfg config.Config, vault *secrets.Store, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	baseURL := fs.String("url", cfg.API.BaseURL, "API base URL")
	email := fs.String("email", "", "admin e-mail")
	password := fs.String("password", "", "admin password (or $ADMINPANEL_PASSWORD)")
	profile := fs.String("profile", cfg.API.Profile, "token profile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("ADMINPANEL_PASSWORD")
	}
	if *email == "" || *password == "" {
		return errors.New("-email and -password are required")
	}

	client, err := api.New(*baseURL, api.Options{Timeout: cfg.API.Timeout})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := vault.Put(*profile, secrets.Session{Token: res.Token, BaseURL: client.BaseURL()}); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	cfg.API.BaseURL = client.BaseURL()
	cfg.API.Profile = *profile
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("logged in as %s; token valid until %s\n", *email, res.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func logout(cfg config.Config, vault *secrets.Store, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	profile := fs.String("profile", cfg.API.Profile, "token profile")
	all := fs.Bool("all", false, "forget every stored profile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	names := []string{*profile}
	if *all {
		var err error
		if names, err = vault.Profiles(); err != nil {
			return err
		}
	}
	for _, name := range names {
		if err := vault.Delete(name); err != nil {
			return err
		}
		fmt.Printf("forgot session %q\n", name)
	}
	return nil
}
