package proxy

import (
	"log"
	"net/http"
	"time"

	"pagekit/enhance"
	"pagekit/storage"
)

const (
	defaultSiteDir      = "public"
	defaultStateDir     = "state"
	defaultOriginTTL    = 30 * time.Second
	defaultPrintTimeout = 30 * time.Second
)

// StorageMode selects the checklist persistence backend.
type StorageMode string

const (
	StorageMemory StorageMode = "memory"
	StorageDisk   StorageMode = "disk"
	StorageSQLite StorageMode = "sqlite"
)

// Config describes server wiring and runtime behaviour.
type Config struct {
	// SiteDir is served when Upstream is empty.
	SiteDir string
	// Upstream is the base URL of an origin to front instead of SiteDir.
	Upstream string
	// OriginTTL bounds how long raw origin bodies are reused.
	OriginTTL time.Duration

	Storage  StorageMode
	StateDir string

	Site           enhance.SiteInfo
	RestoreTimeout time.Duration

	PrintEnabled bool
	PrintTimeout time.Duration

	Logger *log.Logger
	Clock  func() time.Time
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		SiteDir:        defaultSiteDir,
		OriginTTL:      defaultOriginTTL,
		Storage:        StorageMemory,
		StateDir:       defaultStateDir,
		Site:           enhance.DefaultSiteInfo(),
		RestoreTimeout: enhance.DefaultRestoreTimeout,
		PrintEnabled:   true,
		PrintTimeout:   defaultPrintTimeout,
		Logger:         log.Default(),
		Clock:          time.Now,
	}
}

// Server exposes the HTTP handlers serving enhanced pages.
type Server struct {
	cfg     Config
	mux     *http.ServeMux
	handler http.Handler
	logger  *log.Logger
	origin  origin
	cache   *originCache
	clients *clientStore
	backend enhance.Backend
	printer pdfPrinter
	clock   func() time.Time
}

// New wires a new server with the provided configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.SiteDir == "" {
		cfg.SiteDir = defaultSiteDir
	}
	if cfg.PrintTimeout <= 0 {
		cfg.PrintTimeout = defaultPrintTimeout
	}
	backend, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		logger:  cfg.Logger,
		origin:  newOrigin(cfg),
		cache:   newOriginCache(cfg.Clock, cfg.OriginTTL),
		clients: newClientStore(cfg.Clock),
		backend: backend,
		clock:   cfg.Clock,
	}
	if cfg.PrintEnabled {
		s.printer = newChromePrinter(s.logger)
	}
	s.registerRoutes()
	s.handler = withLogging(s.logger, s.mux)
	return s, nil
}

func openBackend(cfg Config) (enhance.Backend, error) {
	switch cfg.Storage {
	case StorageDisk:
		return storage.NewDisk(cfg.StateDir)
	case StorageSQLite:
		return storage.OpenSQLite(cfg.StateDir + "/checklists.db")
	default:
		return storage.NewMemory(), nil
	}
}

// Close releases the printer and storage.
func (s *Server) Close() error {
	if p, ok := s.printer.(*chromePrinter); ok && p != nil {
		p.Close()
	}
	if c, ok := s.backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handlePage)
	s.mux.HandleFunc(bridgePath, s.handleBridge)
	s.mux.HandleFunc("/_pagekit/checklist/toggle", s.handleToggle)
	s.mux.HandleFunc("/_pagekit/checklist/state", s.handleState)
	s.mux.HandleFunc("/_pagekit/action", s.handleAction)
	s.mux.HandleFunc("/ping", s.handlePing)
}
