package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/notify"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/push"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/session"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store/drivers/memory"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store/drivers/redis"
	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/store/drivers/sqlite"
	"github.com/aussiebroadwan/hrdesk/pkg/cryptox"
	"github.com/aussiebroadwan/hrdesk/pkg/hrsdk"
	"github.com/aussiebroadwan/hrdesk/pkg/idx"
	"github.com/aussiebroadwan/hrdesk/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application holds the long-lived dependencies shared by every command.
type Application struct {
	cfg      Config
	logger   *slog.Logger
	out      io.Writer
	clientID string

	store    store.Store
	client   *hrsdk.Client
	notifier notify.Notifier
}

type Option func(*Application)

// WithOutput sends command output and notifications to w instead of stdout.
func WithOutput(w io.Writer) Option { return func(a *Application) { a.out = w } }

// WithLogger replaces the logger built from Config.
func WithLogger(l *slog.Logger) Option { return func(a *Application) { a.logger = l } }

// New opens the store and builds the backend client.
func New(cfg Config, opts ...Option) (*Application, error) {
	app := &Application{
		cfg:      cfg,
		out:      os.Stdout,
		clientID: cfg.API.ClientID,
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "hrdesk",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}
	if app.clientID == "" {
		app.clientID = idx.WithPrefix("hrdesk")
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}
	app.initClient()

	app.notifier = notify.Multi{
		notify.NewWriterNotifier(app.out),
		notify.LogNotifier{Logger: app.logger},
	}
	return app, nil
}

// Close releases the store.
func (app *Application) Close() error {
	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}
	return nil
}

// initStore opens the configured driver and applies migrations
func (app *Application) initStore() error {
	var opts []store.Option
	if app.cfg.Store.CacheKey != "" {
		sealer, err := cryptox.NewSealer([]byte(app.cfg.Store.CacheKey))
		if err != nil {
			return fmt.Errorf("failed to initialize cache sealer: %w", err)
		}
		opts = append(opts, store.WithSealer(sealer))
	}

	var (
		st  store.Store
		err error
	)
	switch app.cfg.Store.Driver {
	case "memory":
		st = memory.NewStore(opts...)
	case "redis":
		rc := app.cfg.Store.Redis
		st = redis.NewStore(rc.Addr, rc.Password, rc.DB, opts...)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", app.cfg.Store.DatabaseFile)
		st, err = sqlite.NewStore(dsn, opts...)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
	}

	if err := st.Ping(context.Background()); err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to reach %s store: %w", app.cfg.Store.Driver, err)
	}
	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to apply store migrations: %w", err)
	}

	app.store = st
	app.logger.Debug("store ready", "driver", app.cfg.Store.Driver)
	return nil
}

func (app *Application) initClient() {
	opts := []hrsdk.Option{
		hrsdk.WithTimeout(app.cfg.API.RequestTimeout),
		hrsdk.WithLogger(app.logger),
	}
	if app.cfg.API.RateLimitRPS > 0 {
		opts = append(opts, hrsdk.WithRateLimit(app.cfg.API.RateLimitRPS, 1))
	}
	app.client = hrsdk.NewClient(app.cfg.API.URL, opts...)
}

// newManager builds a session manager. Only long-running commands subscribe
// to the push channel.
func (app *Application) newManager(withPush bool) *session.Manager {
	opts := []session.Option{
		session.WithNotifier(app.notifier),
		session.WithNavigator(session.NavigatorFunc(app.navigate)),
		session.WithLogger(app.logger),
	}
	if withPush {
		pc := push.NewClient(app.cfg.API.PushURL, app.clientID, app.logger)
		opts = append(opts, session.WithPushChannel(pc))
	}
	return session.NewManager(app.cfg.Session.manager(), session.SDKAuth{Client: app.client}, app.store, opts...)
}

// navigate has no screen to change; the route is only logged.
func (app *Application) navigate(route string) {
	app.logger.Debug("navigate", "route", route)
}
