package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Ergy12/caldeco/internal/ast"
	"github.com/Ergy12/caldeco/internal/engine"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Config holds the server configuration
type Config struct {
	Host               string
	Port               int
	Concurrency        int
	CalculationTimeout time.Duration
	EnableMetrics      bool
	EnableCORS         bool
	CatalogFile        string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
}

// DefaultConfig returns a default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:               "localhost",
		Port:               8080,
		Concurrency:        4,
		CalculationTimeout: 10 * time.Second,
		EnableMetrics:      true,
		EnableCORS:         true,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		ShutdownTimeout:    30 * time.Second,
	}
}

// CatalogStore holds the catalog snapshot requests are served from. A
// calculation keeps the snapshot it started with even if the store is
// reloaded meanwhile.
type CatalogStore struct {
	catalog *ast.Catalog
	mu      sync.RWMutex
}

// NewCatalogStore creates a store holding catalog
func NewCatalogStore(catalog *ast.Catalog) *CatalogStore {
	return &CatalogStore{catalog: catalog}
}

// Get returns the current snapshot
func (s *CatalogStore) Get() *ast.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Set replaces the snapshot
func (s *CatalogStore) Set(catalog *ast.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = catalog
}

// Load parses file and replaces the snapshot when it is valid
func (s *CatalogStore) Load(file string) error {
	catalog, err := engine.LoadCatalog(file)
	if err != nil {
		return fmt.Errorf("failed to load catalog %s: %w", file, err)
	}

	s.Set(catalog)

	log.Info().
		Str("file", file).
		Str("catalog", catalog.Name()).
		Int("variables", len(catalog.Variables)).
		Int("formulas", len(catalog.Formulas)).
		Msg("Catalog loaded")

	return nil
}

// Metrics records calculation statistics
type Metrics struct {
	calculations        prometheus.Counter
	formulaEvaluations  *prometheus.CounterVec
	calculationDuration prometheus.Histogram
	streamClients       prometheus.Gauge
}

// NewMetrics creates the server metrics and registers them with registerer
// when it is not nil
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		calculations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "caldeco_calculations_total",
			Help: "Total number of calculations run",
		}),
		formulaEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caldeco_formula_evaluations_total",
			Help: "Total formula evaluations by outcome",
		}, []string{"outcome"}),
		calculationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "caldeco_calculation_duration_seconds",
			Help:    "Calculation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "caldeco_stream_clients",
			Help: "Number of connected stream clients",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(m.calculations)
		registerer.MustRegister(m.formulaEvaluations)
		registerer.MustRegister(m.calculationDuration)
		registerer.MustRegister(m.streamClients)
	}

	return m
}

// ObserveCalculation records a finished calculation
func (m *Metrics) ObserveCalculation(result *engine.CalculationResult) {
	m.calculations.Inc()
	m.calculationDuration.Observe(result.Duration.Seconds())
	for _, r := range result.Results {
		m.formulaEvaluations.WithLabelValues(string(r.Outcome)).Inc()
	}
}

// Server represents the caldeco HTTP server
type Server struct {
	config   *Config
	store    *CatalogStore
	metrics  *Metrics
	registry prometheus.Gatherer
	server   *http.Server
	upgrader websocket.Upgrader
}

// New creates a new server registered with the default Prometheus registry
func New(config *Config, store *CatalogStore) (*Server, error) {
	return NewWithRegistry(config, store, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry creates a new server with a custom metrics registry
func NewWithRegistry(config *Config, store *CatalogStore, registerer prometheus.Registerer, gatherer prometheus.Gatherer) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if store == nil {
		store = NewCatalogStore(nil)
	}

	if store.Get() == nil {
		if config.CatalogFile == "" {
			return nil, fmt.Errorf("no catalog file specified")
		}
		if err := store.Load(config.CatalogFile); err != nil {
			return nil, err
		}
	}

	return &Server{
		config:   config,
		store:    store,
		metrics:  NewMetrics(registerer),
		registry: gatherer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return config.EnableCORS
			},
		},
	}, nil
}

// Handler builds the router serving every endpoint
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	if s.config.EnableCORS {
		router.Use(s.corsMiddleware)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.loggingMiddleware)

	api.HandleFunc("/catalog", s.getCatalog).Methods("GET")
	api.HandleFunc("/catalog/reload", s.reloadCatalog).Methods("POST")
	api.HandleFunc("/inputs", s.listInputs).Methods("GET")
	api.HandleFunc("/calculate", s.calculate).Methods("POST")
	api.HandleFunc("/formulas/{id}/evaluate", s.evaluateFormula).Methods("POST")
	api.HandleFunc("/stream", s.stream).Methods("GET")

	if s.config.EnableCORS {
		api.Methods("OPTIONS").HandlerFunc(s.handleOptions)
	}

	if s.config.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	router.HandleFunc("/health", s.healthCheck)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := s.GetAddr()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	catalog := s.store.Get()
	log.Info().
		Str("addr", addr).
		Str("catalog", catalog.Name()).
		Int("formulas", len(catalog.Formulas)).
		Int("concurrency", s.config.Concurrency).
		Bool("metrics", s.config.EnableMetrics).
		Msg("Starting caldeco server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Info().Msg("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// StartWithGracefulShutdown starts the server and blocks until SIGINT or
// SIGTERM, then shuts down
func (s *Server) StartWithGracefulShutdown() error {
	if err := s.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	<-sigChan
	log.Info().Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
		return err
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}

// GetAddr returns the server address
func (s *Server) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// newCalculator creates the calculator for one request
func (s *Server) newCalculator() *engine.Calculator {
	return engine.NewCalculator(engine.WithConcurrency(s.config.Concurrency))
}

// handleOptions handles CORS preflight requests
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
