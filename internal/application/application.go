package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/warehousekit/bindivider/internal/api"
	"github.com/warehousekit/bindivider/internal/config"
	"github.com/warehousekit/bindivider/internal/derive"
	"github.com/warehousekit/bindivider/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	library storage.BinLibrary
	groups  storage.GroupList
	engine  derive.Engine
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	library := storage.NewMemoryLibrary()
	seedLibrary(library, cfg.SeedBins)

	groups := storage.NewMemoryGroupList()
	engine := derive.New()

	handler := api.NewHandler(library, groups, engine,
		api.WithMaxColumnWidth(cfg.MaxColumnWidth),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	rootHandler, err := BuildRootHandler(apiRouter)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	return &App{
		library: library,
		groups:  groups,
		engine:  engine,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, rootHandler),
	}, nil
}

// seedLibrary loads the configured bin definitions into an empty library. The
// store applies its usual clamps, so partial seed entries are safe.
func seedLibrary(library storage.BinLibrary, seeds []config.SeedBin) {
	for _, seed := range seeds {
		bin := library.Add()
		// Update cannot fail for an id just handed out by Add.
		_, _ = library.Update(bin.ID, storage.BinFields{
			Name:          seed.Name,
			DepthMM:       seed.DepthMM,
			HeightMM:      seed.HeightMM,
			WidthMM:       seed.WidthMM,
			HasLip:        seed.HasLip,
			ShelvesPerBay: seed.ShelvesPerBay,
			BinsPerShelf:  seed.BinsPerShelf,
			UT:            seed.UT,
		})
	}
}

// BuildRootHandler constructs the root HTTP handler that serves static files and routes API requests.
func BuildRootHandler(apiHandler http.Handler) (http.Handler, error) {
	mux := http.NewServeMux()

	staticPath, err := resolveProjectPath(filepath.Join("web", "static"))
	if err != nil {
		return nil, err
	}
	staticDir := http.Dir(staticPath)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(staticDir)))
	mux.Handle("/api/", apiHandler)

	indexPath, err := resolveProjectPath(filepath.Join("web", "templates", "index.html"))
	if err != nil {
		return nil, err
	}
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, indexPath)
	}))

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Router returns the API router, primarily for tests.
func (a *App) Router() http.Handler {
	return a.router
}

// resolveProjectPath locates a file or directory relative to the project root by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
