package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/server"
	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultLoginTimeout = 2 * time.Minute

// identityProvider returns the injected [SignIn] or builds one from [credentials.oauth].
func (r *Runner) identityProvider() (SignIn, error) {
	if r.signIn != nil {
		return r.signIn, nil
	}
	svc, err := services.NewIdentityService(r.cfg().Credentials.OAuth, r.httpClient)
	if err != nil {
		return nil, err
	}
	r.signIn = svc
	return svc, nil
}

// callbackPath is the path component of the configured redirect URI.
func (r *Runner) callbackPath() string {
	u, err := url.Parse(r.cfg().Credentials.OAuth.RedirectURI)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}

// AuthLogin runs the authorization-code flow through a local callback server
// and stores the signed-in identity in the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.identityProvider()
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}
	authURL := provider.AuthURL(state)

	handler := server.NewOAuthHandler(provider, state, r.callbackPath())
	logger := shared.WithLogger(r.logger, "component", "callback")
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(logger), server.Recoverer(logger))
	router.Handler(handler)

	cfg := r.cfg()
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}

	ready := func(bound string) {
		r.logger.Debug("callback server listening", "addr", bound, "path", r.callbackPath())
		r.writePlain("→ Opening browser for authorization...\n")
		if err := r.openBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
		}
		r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)
	}

	result, err := server.AwaitCallback(ctx, addr, router, handler, timeout, ready)
	if err != nil {
		return err
	}

	id := result.Identity
	cfg.Identity = shared.IdentityConfig{UID: id.UID, Email: id.Email, Name: id.Name}
	if err := shared.SaveConfig(r.configPath, cfg); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	r.session = nil

	if users, err := r.userRepository(ctx); err != nil {
		r.logger.Warn("user record not saved", "error", err)
	} else if err := users.Upsert(ctx, models.NewUser(id.UID, id.Email, id.Name)); err != nil {
		r.logger.Warn("user record not saved", "uid", id.UID, "error", err)
	}

	r.logger.Info("signed in", "uid", id.UID)
	return r.writePlain("✓ Signed in as %s\n", displayName(cfg.Identity))
}

// AuthStatus prints the signed-in identity.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	identity := r.cfg().Identity
	if identity.Anonymous() {
		return r.writePlain("Not signed in. Browsing the sample list.\n")
	}

	r.writePlain("✓ Signed in as %s\n", displayName(identity))
	r.writePlain("UID:   %s\n", identity.UID)
	if identity.Email != "" {
		r.writePlain("Email: %s\n", identity.Email)
	}

	users, err := r.userRepository(ctx)
	if err != nil {
		return err
	}
	user, err := users.Get(ctx, identity.UID)
	if err != nil {
		r.logger.Debug("no user record", "uid", identity.UID, "error", err)
		return nil
	}
	return r.writePlain("Since: %s\n", user.CreatedAt().Format(time.DateOnly))
}

// AuthLogout clears the stored identity. With --purge the account's stored
// watchlist is deleted and its user record soft-deleted first.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	cfg := r.cfg()
	if cfg.Identity.Anonymous() {
		return r.writePlain("Not signed in.\n")
	}

	if cmd.Bool("purge") {
		if err := r.purgeAccount(ctx, cfg.Identity.UID); err != nil {
			return err
		}
	}

	name := displayName(cfg.Identity)
	cfg.Identity = shared.IdentityConfig{}
	if err := shared.SaveConfig(r.configPath, cfg); err != nil {
		return err
	}
	r.session = nil
	return r.writePlain("✓ Signed out %s\n", name)
}

func (r *Runner) purgeAccount(ctx context.Context, uid string) error {
	docs, err := r.documents(ctx)
	if err != nil {
		return err
	}
	if err := docs.Delete(ctx, uid); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	users, err := r.userRepository(ctx)
	if err != nil {
		return err
	}
	if err := users.Delete(ctx, uid); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	r.logger.Info("purged account", "uid", uid)
	return r.writePlain("✓ Removed the stored list for %s\n", uid)
}

// AuthAccounts lists the accounts that have signed in on this machine and
// marks the ones with a stored watchlist.
func (r *Runner) AuthAccounts(ctx context.Context, cmd *cli.Command) error {
	users, err := r.userRepository(ctx)
	if err != nil {
		return err
	}
	accounts, err := users.List(ctx, map[string]any{"email": cmd.String("email")})
	if err != nil {
		return err
	}

	docs, err := r.documents(ctx)
	if err != nil {
		return err
	}
	keys, err := docs.Keys(ctx)
	if err != nil {
		return err
	}
	stored := make(map[string]bool, len(keys))
	for _, k := range keys {
		stored[k] = true
	}

	if len(accounts) == 0 {
		return r.writePlain("No accounts.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Accounts (%d)", len(accounts)))
	current := r.cfg().Identity.UID
	for _, u := range accounts {
		marker := " "
		if u.ID() == current {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s  [%s]", marker, displayName(shared.IdentityConfig{UID: u.ID(), Email: u.Email(), Name: u.Name()}), u.ID())
		if stored[u.ID()] {
			line += "  stored list"
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

func displayName(id shared.IdentityConfig) string {
	switch {
	case id.Name != "":
		return id.Name
	case id.Email != "":
		return id.Email
	}
	return id.UID
}
