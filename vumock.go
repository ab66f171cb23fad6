package vumock

import (
	"math/rand"
	"net/http"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/fabricadesoftware/vumock/internal/api"
	"github.com/fabricadesoftware/vumock/internal/domain"
	"github.com/fabricadesoftware/vumock/internal/store"
)

// Database is one simulated cloud database. The server key pair signs
// management API requests, the client key pair signs query API requests.
// Inactive marks the project as deactivated, which makes both APIs answer
// with the inactive-project result codes.
type Database struct {
	Name            string
	ServerAccessKey string
	ServerSecretKey string
	ClientAccessKey string
	ClientSecretKey string
	Inactive        bool
}

// Mock is an in-memory double of the Vuforia Web Services API. It holds
// any number of databases and serves both the target management API and
// the recognition query API over their HMAC-signed wire protocol.
type Mock struct {
	settings settings
	registry *store.Registry
	router   *api.Router

	// randMu guards seed draws from the injected rand when databases are
	// added concurrently.
	randMu sync.Mutex
}

// New builds a Mock with no databases. Add at least one with AddDatabase
// before sending requests, or every request will fail authentication.
func New(opts ...Option) *Mock {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	registry := store.NewRegistry()
	router := api.NewRouter(s.logger, registry)
	router.Setup()

	return &Mock{
		settings: s,
		registry: registry,
		router:   router,
	}
}

// AddDatabase registers a database. Empty credential fields are filled
// with fresh random keys; the completed definition is returned so callers
// can sign requests with it.
func (m *Mock) AddDatabase(db Database) Database {
	fill := func(field *string) {
		if *field == "" {
			*field = domain.RandomHex()
		}
	}
	fill(&db.Name)
	fill(&db.ServerAccessKey)
	fill(&db.ServerSecretKey)
	fill(&db.ClientAccessKey)
	fill(&db.ClientSecretKey)

	state := domain.StateWorking
	if db.Inactive {
		state = domain.StateProjectInactive
	}

	// Each store draws ratings under its own lock, so it must own its rand.
	// Seeding a fresh one from the injected source keeps WithRand
	// deterministic across databases without sharing the unsynchronized
	// *rand.Rand between stores.
	var rng *rand.Rand
	if m.settings.rand != nil {
		m.randMu.Lock()
		rng = rand.New(rand.NewSource(m.settings.rand.Int63()))
		m.randMu.Unlock()
	}

	m.registry.Add(store.New(&domain.Database{
		Name:            db.Name,
		ServerAccessKey: db.ServerAccessKey,
		ServerSecretKey: db.ServerSecretKey,
		ClientAccessKey: db.ClientAccessKey,
		ClientSecretKey: db.ClientSecretKey,
		State:           state,
	}, store.Config{
		ProcessingDelay: m.settings.processingDelay,
		DeletionWindow:  m.settings.deletionWindow,
		Clock:           m.settings.clock,
		Rand:            rng,
	}))

	return db
}

// App exposes the underlying fiber application.
func (m *Mock) App() *fiber.App {
	return m.router.App()
}

// Handler adapts the mock into a net/http handler, for mounting in an
// httptest.Server or any stdlib mux.
func (m *Mock) Handler() http.Handler {
	return adaptor.FiberApp(m.router.App())
}

// Test sends a request through the mock without opening a socket.
func (m *Mock) Test(req *http.Request) (*http.Response, error) {
	return m.router.App().Test(req, -1)
}

// Listen serves the mock on the given address until Shutdown.
func (m *Mock) Listen(addr string) error {
	return m.router.Listen(addr)
}

// Shutdown gracefully stops a listening mock.
func (m *Mock) Shutdown() error {
	return m.router.Shutdown()
}
