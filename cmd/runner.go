package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wlx/internal/repositories"
	"github.com/desertthunder/wlx/internal/server"
	"github.com/desertthunder/wlx/internal/services"
	"github.com/desertthunder/wlx/internal/shared"
	"github.com/desertthunder/wlx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SignIn is the identity provider used by `wlx auth login`.
type SignIn interface {
	server.Authenticator
	AuthURL(state string) string
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies not supplied through [RunnerOpts] are built from the config on first use.
type Runner struct {
	config      *shared.Config
	configPath  string
	db          *sql.DB
	ownsDB      bool
	store       repositories.Store
	users       *repositories.UserRepository
	completer   services.Completer
	metadata    services.MetadataProvider
	signIn      SignIn
	httpClient  *http.Client
	ownsClient  bool
	logger      *log.Logger
	output      io.Writer
	engine      *tasks.WatchlistEngine
	session     *tasks.Session
	openBrowser func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	Store      repositories.Store
	Completer  services.Completer
	Metadata   services.MetadataProvider
	SignIn     SignIn
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	ownsClient := opts.HTTPClient == nil
	if ownsClient {
		opts.HTTPClient = newHTTPClient(opts.Config)
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		db:          opts.DB,
		store:       opts.Store,
		completer:   opts.Completer,
		metadata:    opts.Metadata,
		signIn:      opts.SignIn,
		httpClient:  opts.HTTPClient,
		ownsClient:  ownsClient,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: shared.OpenBrowser,
	}
}

// newHTTPClient builds the outbound client bounded by [http] timeout.
func newHTTPClient(config *shared.Config) *http.Client {
	timeout := shared.HTTPConfig{}.TimeoutDuration()
	if config != nil {
		timeout = config.HTTP.TimeoutDuration()
	}
	return &http.Client{Timeout: timeout}
}

// Bootstrap runs before every command: it applies --verbose and loads the
// config named by --config unless one was supplied. A client built by
// [NewRunner] is rebuilt from the loaded config.
func (r *Runner) Bootstrap(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if path := cmd.String("config"); path != "" && r.configPath == "" {
		r.configPath = path
	}
	if r.configPath == "" {
		r.configPath = "config.toml"
	}
	if r.config == nil {
		config, err := shared.LoadConfig(r.configPath)
		switch {
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
			config = shared.DefaultConfig()
		case err != nil:
			return ctx, err
		}
		r.config = config
	}

	if r.ownsClient {
		r.httpClient = newHTTPClient(r.config)
	}
	return ctx, nil
}

// Close releases the database if the runner opened one.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db, r.ownsDB = nil, false
	r.users = nil
	return err
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI runs.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.engine = nil
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// database opens the configured SQLite database and applies pending migrations.
func (r *Runner) database(ctx context.Context) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(ctx, r.cfg().Database)
	if err != nil {
		return nil, err
	}
	r.db, r.ownsDB = db, true
	return db, nil
}

func (r *Runner) userRepository(ctx context.Context) (*repositories.UserRepository, error) {
	if r.users != nil {
		return r.users, nil
	}
	db, err := r.database(ctx)
	if err != nil {
		return nil, err
	}
	r.users = repositories.NewUserRepository(db)
	return r.users, nil
}

// documents returns the watchlist collection as a [repositories.DocumentStore],
// reusing the injected store when it is one.
func (r *Runner) documents(ctx context.Context) (*repositories.DocumentStore, error) {
	if docs, ok := r.store.(*repositories.DocumentStore); ok {
		return docs, nil
	}
	db, err := r.database(ctx)
	if err != nil {
		return nil, err
	}
	return repositories.NewDocumentStore(db, repositories.CollectionWatchlists), nil
}

func (r *Runner) clientOpts(baseURL string) services.APIClientOpts {
	return services.APIClientOpts{
		BaseURL:    baseURL,
		HTTPClient: r.httpClient,
		Retries:    r.cfg().HTTP.Retries,
		Logger:     r.logger,
	}
}

// buildServices builds the optional completion and metadata clients from credentials.
// Missing credentials leave them nil; the commands that need them report it.
func (r *Runner) buildServices() {
	creds := r.cfg().Credentials

	if r.completer == nil {
		svc, err := services.NewCompletionService(services.CompletionOpts{
			APIKey:      creds.Completion.APIKey,
			BaseURL:     creds.Completion.BaseURL,
			Model:       creds.Completion.Model,
			Temperature: creds.Completion.Temperature,
			Client:      r.clientOpts(creds.Completion.BaseURL),
		})
		if err != nil {
			r.logger.Debug("completion service disabled", "error", err)
		} else {
			r.completer = svc
		}
	}

	if r.metadata == nil {
		var client *services.APIClient
		if creds.OMDb.BaseURL != "" {
			client = services.NewAPIClient(r.clientOpts(creds.OMDb.BaseURL))
		}
		svc, err := services.NewOMDbService(creds.OMDb.APIKey, creds.OMDb.RequestsPerSecond, client)
		if err != nil {
			r.logger.Debug("metadata service disabled", "error", err)
		} else {
			r.metadata = svc
		}
	}
}

// watchlist returns the engine and the session for the configured identity.
func (r *Runner) watchlist(ctx context.Context) (*tasks.WatchlistEngine, *tasks.Session, error) {
	if r.engine != nil && r.session != nil {
		return r.engine, r.session, nil
	}

	if r.store == nil {
		db, err := r.database(ctx)
		if err != nil {
			return nil, nil, err
		}
		r.store = repositories.NewDocumentStore(db, repositories.CollectionWatchlists)
	}
	r.buildServices()

	cfg := r.cfg()
	r.engine = tasks.NewWatchlistEngine(tasks.EngineOpts{
		Store:      r.store,
		Completer:  r.completer,
		Metadata:   r.metadata,
		SamplePath: cfg.Browse.SamplePath,
		LookupRate: cfg.Credentials.OMDb.RequestsPerSecond,
		Logger:     r.logger,
	})
	if r.session == nil {
		r.session = tasks.NewSession(repositories.Owner{
			UID:   cfg.Identity.UID,
			Name:  cfg.Identity.Name,
			Email: cfg.Identity.Email,
		})
	}
	return r.engine, r.session, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, listCommand, facetsCommand, seenCommand, removeCommand, bulkCommand,
		importCommand, exportCommand, searchCommand, addCommand, enrichCommand, askCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
