package index

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/sirupsen/logrus"

	"github.com/pkgvault/pkgvault/configuration"
	dcontext "github.com/pkgvault/pkgvault/context"
	"github.com/pkgvault/pkgvault/index/datastore"
	"github.com/pkgvault/pkgvault/index/datastore/inmemory"
	"github.com/pkgvault/pkgvault/index/handlers"
	"github.com/pkgvault/pkgvault/index/storage"
	"github.com/pkgvault/pkgvault/index/storage/driver/factory"
	"github.com/pkgvault/pkgvault/uuid"
	"github.com/pkgvault/pkgvault/version"
)

// An Index represents a complete instance of the package index.
type Index struct {
	config *configuration.Configuration
	app    *handlers.App
	server *http.Server
}

// NewIndex creates a new index from a context and configuration, ready to
// run.
func NewIndex(ctx context.Context, config *configuration.Configuration, opts ...handlers.AppOption) (*Index, error) {
	var err error
	ctx, err = configureLogging(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error configuring logger: %v", err)
	}

	driver, err := factory.Create(config.Storage.Type(), config.Storage.Parameters())
	if err != nil {
		return nil, fmt.Errorf("error constructing %s driver: %v", config.Storage.Type(), err)
	}

	stores, err := buildStores(ctx, config)
	if err != nil {
		return nil, err
	}

	app, err := handlers.NewApp(ctx, config, stores, storage.NewArtifactStore(driver), opts...)
	if err != nil {
		return nil, err
	}

	var handler http.Handler = app
	if !config.Log.AccessLog.Disabled {
		handler = gorillahandlers.CombinedLoggingHandler(os.Stdout, handler)
	}

	server := &http.Server{
		Handler: handler,
	}

	return &Index{
		config: config,
		app:    app,
		server: server,
	}, nil
}

// buildStores constructs the registry stores: database-backed when a
// database is configured, in-memory otherwise.
func buildStores(ctx context.Context, config *configuration.Configuration) (datastore.RegistryStore, error) {
	if config.Database.Host == "" {
		dcontext.GetLogger(ctx).Warn("no database configured, using in-memory metadata registry")
		return inmemory.New(), nil
	}

	dsn := datastore.NewDSNFromConfig(config.Database)
	db, err := datastore.Open(dsn,
		datastore.WithLogger(logrus.NewEntry(logrus.StandardLogger())),
		datastore.WithLogLevel(config.Log.Level),
		datastore.WithPoolConfig(&datastore.PoolConfig{
			MaxIdle:     config.Database.Pool.MaxIdle,
			MaxOpen:     config.Database.Pool.MaxOpen,
			MaxLifetime: config.Database.Pool.MaxLifetime,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("error connecting to metadata database: %v", err)
	}

	dcontext.GetLogger(ctx).Infof("connected to metadata database at %s", dsn.Address())
	return datastore.NewStores(db), nil
}

// ListenAndServe runs the index's HTTP server.
func (idx *Index) ListenAndServe() error {
	config := idx.config

	addr := config.HTTP.Addr
	if addr == "" {
		addr = ":5414"
	}
	idx.server.Addr = addr

	dcontext.GetLogger(idx.app).Infof("listening on %v", addr)
	err := idx.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests and stops the server.
func (idx *Index) Shutdown(ctx context.Context) error {
	drain := idx.config.HTTP.DrainTimeout
	if drain > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, drain)
		defer cancel()
	}
	return idx.server.Shutdown(ctx)
}

func configureLogging(ctx context.Context, config *configuration.Configuration) (context.Context, error) {
	logrus.SetLevel(logLevel(config.Log.Level))

	formatter := config.Log.Formatter
	if formatter == "" {
		formatter = "text"
	}

	switch formatter {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	default:
		return ctx, fmt.Errorf("unsupported logging formatter: %q", formatter)
	}

	dcontext.GetLogger(ctx).Debugf("using %q logging formatter", formatter)

	if len(config.Log.Fields) > 0 {
		// build up the static fields, if present.
		var fields []interface{}
		for k := range config.Log.Fields {
			fields = append(fields, k)
		}

		ctx = dcontext.WithValues(ctx, config.Log.Fields)
		ctx = dcontext.WithLogger(ctx, dcontext.GetLogger(ctx, fields...))
	}

	ctx = dcontext.WithValues(ctx, map[string]interface{}{
		"version":     version.Version,
		"instance.id": uuid.Generate().String(),
	})
	ctx = dcontext.WithLogger(ctx, dcontext.GetLogger(ctx, "version", "instance.id"))

	return ctx, nil
}

func logLevel(level configuration.Loglevel) logrus.Level {
	l, err := logrus.ParseLevel(string(level))
	if err != nil {
		l = logrus.InfoLevel
		logrus.Warnf("error parsing level %q: %v, using %q", level, err, l)
	}

	return l
}
