// Package config provides a dependency injection container for wiring together
// all the components of the application following hexagonal architecture principles.
package config

import (
	"errors"

	"github.com/go-redis/redis/v8"

	"support-triage-agent/internal/application/usecase"
	"support-triage-agent/internal/domain/port"
	"support-triage-agent/internal/domain/service"
	"support-triage-agent/internal/infrastructure/adapter/ai"
	"support-triage-agent/internal/infrastructure/adapter/caserecord"
	"support-triage-agent/internal/infrastructure/adapter/catalog"
	"support-triage-agent/internal/infrastructure/adapter/httpapi"
	"support-triage-agent/internal/infrastructure/adapter/session"
	"support-triage-agent/internal/infrastructure/adapter/ui"

	appsvc "support-triage-agent/internal/application/service"
)

// Container holds all application dependencies wired together.
// It provides a single point of access to all services and ports.
//
// The container is responsible for:
// - Creating and initializing all adapters (infrastructure layer)
// - Creating domain services (domain layer)
// - Creating application services (application layer)
// - Providing accessors for all dependencies.
type Container struct {
	config        *Config
	triageService *appsvc.TriageService
	uiAdapter     port.UserInterface
	analyst       port.TriageAnalyst
	catalog       port.CatalogProvider
	sessionStore  port.SessionStore
	caseStore     port.CaseRecordStore
	httpAdapter   *httpapi.HTTPAdapter
}

// NewContainer creates a new DI container and wires all dependencies.
//
// The wiring order is:
// 1. Create infrastructure adapters (infra layer)
// 2. Create domain services (domain layer)
// 3. Create application services (application layer)
func NewContainer(cfg *Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	// Step 1: Create infrastructure adapters
	catalogAdapter, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	uiAdapter := ui.NewCLIAdapter()
	analyst := ai.NewAnthropicAnalyst(cfg.AIModel, int64(cfg.MaxTokens))

	sessionStore, err := createSessionStore(cfg)
	if err != nil {
		return nil, err
	}

	caseStore, err := caserecord.NewFileStore(cfg.CaseDir)
	if err != nil {
		return nil, err
	}

	// Step 2: Create domain services
	diagnosisService, err := service.NewDiagnosisService(catalogAdapter.Causes())
	if err != nil {
		return nil, err
	}
	actionService, err := service.NewActionService(catalogAdapter.Causes())
	if err != nil {
		return nil, err
	}

	// Step 3: Create application services
	turnUseCase, err := usecase.NewTriageTurnUseCase(
		analyst,
		diagnosisService,
		actionService,
		usecase.TurnConfig{
			AnalystTimeout:      cfg.AnalystTimeout,
			MaxRefinementRounds: cfg.MaxRefinementRounds,
		},
	)
	if err != nil {
		return nil, err
	}

	escalation, err := usecase.NewStoreEscalationHandler(caseStore)
	if err != nil {
		return nil, err
	}

	triageService, err := appsvc.NewTriageService(turnUseCase, sessionStore, escalation)
	if err != nil {
		return nil, err
	}

	httpConfig := httpapi.DefaultConfig()
	httpConfig.Addr = cfg.ListenAddr
	httpAdapter := httpapi.NewHTTPAdapter(triageService, httpConfig)

	return &Container{
		config:        cfg,
		triageService: triageService,
		uiAdapter:     uiAdapter,
		analyst:       analyst,
		catalog:       catalogAdapter,
		sessionStore:  sessionStore,
		caseStore:     caseStore,
		httpAdapter:   httpAdapter,
	}, nil
}

// loadCatalog loads the cause catalog from the configured path, falling back
// to the embedded default catalog.
func loadCatalog(cfg *Config) (*catalog.YAMLCatalog, error) {
	if cfg.CatalogPath != "" {
		return catalog.NewCatalogFromFile(cfg.CatalogPath)
	}
	return catalog.NewDefaultCatalog()
}

// createSessionStore picks Redis when an address is configured, otherwise an
// in-memory store.
func createSessionStore(cfg *Config) (port.SessionStore, error) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return session.NewRedisStore(client, session.DefaultSessionTTL)
}

// TriageService returns the application triage service.
// This is the main entry point for conversation operations.
func (c *Container) TriageService() *appsvc.TriageService {
	return c.triageService
}

// Config returns the application configuration.
func (c *Container) Config() *Config {
	return c.config
}

// UIAdapter returns the user interface port implementation.
func (c *Container) UIAdapter() port.UserInterface {
	return c.uiAdapter
}

// Analyst returns the triage analyst port implementation.
func (c *Container) Analyst() port.TriageAnalyst {
	return c.analyst
}

// Catalog returns the cause catalog provider.
func (c *Container) Catalog() port.CatalogProvider {
	return c.catalog
}

// SessionStore returns the session store port implementation.
func (c *Container) SessionStore() port.SessionStore {
	return c.sessionStore
}

// CaseStore returns the case record store port implementation.
func (c *Container) CaseStore() port.CaseRecordStore {
	return c.caseStore
}

// HTTPAdapter returns the triage HTTP adapter.
// Useful for serving the conversation API over HTTP.
func (c *Container) HTTPAdapter() *httpapi.HTTPAdapter {
	return c.httpAdapter
}
