// Package server exposes the engine over HTTP: machine listing, the
// provably-fair verification endpoint, jackpot streams and the
// WebSocket game bridge.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/house-of-voi/hov-engine/auth"
	"github.com/house-of-voi/hov-engine/chain"
	"github.com/house-of-voi/hov-engine/config"
	"github.com/house-of-voi/hov-engine/machine"
	"github.com/house-of-voi/hov-engine/middleware"
	"github.com/house-of-voi/hov-engine/pkg/jackpot"
	"github.com/house-of-voi/hov-engine/provider"
)

// App represents the engine service application
type App struct {
	engine     *gin.Engine
	config     *config.Config
	logger     zerolog.Logger
	httpServer *http.Server
	onShutdown []func()

	machines *machine.Registry

	jackpotService    *jackpot.Service
	jackpotFeedCancel context.CancelFunc

	stateProvider  *provider.StateProvider
	walletProvider *provider.WalletProvider
	auditProvider  *provider.AuditProvider
	seeds          chain.SeedSource

	// submitterFor builds a chain submitter bound to one player
	// address. The default goes through the wallet service.
	submitterFor func(address string) chain.Submitter

	bridgeHandler  *BridgeHandler
	verifyHandler  *VerifyHandler
	machineHandler *MachineHandler
	jackpotHandler *JackpotHandler
}

// Options holds server configuration options
type Options struct {
	Config       *config.Config
	Logger       zerolog.Logger
	Machines     *machine.Registry
	JackpotStore jackpot.Store
}

// New creates a new engine service application
func New(opts Options) *App {
	if opts.Config.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	app := &App{
		engine:   engine,
		config:   opts.Config,
		logger:   opts.Logger,
		machines: opts.Machines,
	}

	app.jackpotService = jackpot.NewService(jackpot.ServiceConfig{
		BroadcastInterval: 2 * time.Second,
		Logger:            opts.Logger,
		Store:             opts.JackpotStore,
	})
	app.registerJackpotPools()

	app.submitterFor = func(address string) chain.Submitter {
		return provider.NewSpinSubmitter(opts.Config, address, opts.Logger)
	}

	app.bridgeHandler = NewBridgeHandler(app)
	app.verifyHandler = NewVerifyHandler(app)
	app.machineHandler = NewMachineHandler(app)
	app.jackpotHandler = NewJackpotHandler(app, app.jackpotService)

	return app
}

// registerJackpotPools registers a pool for every ways machine that
// carries a jackpot reset value.
func (a *App) registerJackpotPools() {
	if a.machines == nil {
		return
	}
	for _, m := range a.machines.All() {
		if m.Variant != machine.VariantWays || m.JackpotResetValue == 0 {
			continue
		}
		a.jackpotService.RegisterPool(jackpot.PoolConfig{
			MachineID: m.ID,
			Reset:     m.JackpotResetValue,
			Rate:      decimal.NewFromFloat(0.01),
		})
		a.logger.Info().
			Str("machine_id", m.ID).
			Uint64("reset", m.JackpotResetValue).
			Msg("Jackpot pool registered")
	}
}

// SetStateProvider sets the state provider for queue snapshot persistence
func (a *App) SetStateProvider(p *provider.StateProvider) {
	a.stateProvider = p
}

// SetWalletProvider sets the wallet provider for balance operations
func (a *App) SetWalletProvider(p *provider.WalletProvider) {
	a.walletProvider = p
}

// SetAuditProvider sets the audit provider for event publishing. It
// also starts mirroring jackpot movements onto the event bus.
func (a *App) SetAuditProvider(p *provider.AuditProvider) {
	a.auditProvider = p
	if p != nil {
		a.startJackpotPublisher()
	}
}

// SetSeedSource sets the chain seed source used for confirmation waits
func (a *App) SetSeedSource(s chain.SeedSource) {
	a.seeds = s
}

// SetSubmitterFactory overrides how per-session chain submitters are
// built. Tests inject fakes here.
func (a *App) SetSubmitterFactory(f func(address string) chain.Submitter) {
	a.submitterFor = f
}

// startJackpotPublisher forwards local pool movements to the audit
// provider so other instances and dashboards see them.
func (a *App) startJackpotPublisher() {
	ctx, cancel := context.WithCancel(context.Background())
	a.OnShutdown(cancel)

	updates, stop := a.jackpotService.Listen(ctx)
	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				a.auditProvider.JackpotMoved(provider.JackpotEvent(u))
			}
		}
	}()
}

// AttachJackpotUpdateFeed attaches a source of jackpot updates (e.g. a
// Kafka consumer channel). Updates are copied into the shared jackpot
// service buffer. Pass nil to detach.
func (a *App) AttachJackpotUpdateFeed(feed <-chan jackpot.Update) {
	if a.jackpotFeedCancel != nil {
		a.jackpotFeedCancel()
		a.jackpotFeedCancel = nil
	}
	if feed == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.jackpotFeedCancel = cancel
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-feed:
				if !ok {
					return
				}
				a.jackpotService.HandleRemoteUpdate(upd)
			}
		}
	}()
}

// UseCommonMiddlewares adds common middlewares to the application
func (a *App) UseCommonMiddlewares() {
	// Recovery middleware (must be first)
	a.engine.Use(middleware.Recovery(a.logger))
	a.engine.Use(middleware.TraceID())
	a.engine.Use(middleware.Logging(a.logger))

	if a.config.Server.EnableCORS {
		a.engine.Use(middleware.CORS())
	}
}

// UseMiddleware adds a custom middleware
func (a *App) UseMiddleware(m gin.HandlerFunc) {
	a.engine.Use(m)
}

// GetJackpotService returns the jackpot service
func (a *App) GetJackpotService() *jackpot.Service {
	return a.jackpotService
}

// GetMachines returns the machine registry
func (a *App) GetMachines() *machine.Registry {
	return a.machines
}

// RegisterHealthCheck adds health check endpoints
func (a *App) RegisterHealthCheck() {
	a.engine.GET("/health", a.healthCheck)
	a.engine.GET("/api/health", a.healthCheck)
}

func (a *App) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   a.config.Environment,
		"machines":  a.machines.IDs(),
	})
}

// RegisterEngineRoutes registers the engine API routes.
//
// Routes registered:
//   - POST /api/sessions                           -> BridgeHandler.CreateSession (no auth)
//   - GET  /api/engine/machines                    -> MachineHandler.List
//   - GET  /api/engine/machines/:machine_id        -> MachineHandler.Get
//   - POST /api/engine/machines/:machine_id/verify -> VerifyHandler.Verify
//   - GET  /api/engine/machines/:machine_id/jackpot          -> JackpotHandler.Current
//   - GET  /api/engine/machines/:machine_id/jackpot/updates  -> JackpotHandler.StreamUpdates (SSE)
//   - GET  /api/engine/machines/:machine_id/jackpot/updates/ws -> JackpotHandler.StreamUpdatesWebSocket
//   - GET  /api/engine/machines/:machine_id/bridge -> BridgeHandler.Connect (WebSocket)
//   - GET  /api/engine/queue                       -> BridgeHandler.GetStoredQueue
func (a *App) RegisterEngineRoutes() {
	a.engine.POST("/api/sessions", a.bridgeHandler.CreateSession)

	eng := a.engine.Group("/api/engine")
	eng.Use(auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
	{
		eng.GET("/machines", a.machineHandler.List)
		eng.GET("/machines/:machine_id", a.machineHandler.Get)
		eng.POST("/machines/:machine_id/verify", a.verifyHandler.Verify)

		eng.GET("/machines/:machine_id/jackpot", a.jackpotHandler.Current)
		eng.GET("/machines/:machine_id/jackpot/updates", a.jackpotHandler.StreamUpdates)
		eng.GET("/machines/:machine_id/jackpot/updates/ws", a.jackpotHandler.StreamUpdatesWebSocket)

		eng.GET("/machines/:machine_id/bridge", a.bridgeHandler.Connect)
		eng.GET("/queue", a.bridgeHandler.GetStoredQueue)
	}

	a.logger.Info().Msg("Engine routes registered: /api/engine")
}

// Router returns the Gin engine for custom route registration
func (a *App) Router() *gin.Engine {
	return a.engine
}

// AuthGroup creates a route group with JWT authentication
func (a *App) AuthGroup(path string) *gin.RouterGroup {
	return a.engine.Group(path, auth.JWTMiddleware(a.config.JWT.Secret, a.logger))
}

// OnShutdown registers a function to be called on shutdown
func (a *App) OnShutdown(fn func()) {
	a.onShutdown = append(a.onShutdown, fn)
}

// Run starts the HTTP server
func (a *App) Run() error {
	addr := fmt.Sprintf(":%d", a.config.Server.Port)

	a.httpServer = &http.Server{
		Addr:         addr,
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	return a.waitForShutdown()
}

// RunWithContext starts the HTTP server with context
func (a *App) RunWithContext(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.config.Server.Port)

	a.httpServer = &http.Server{
		Addr:         addr,
		Handler:      a.engine,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info().
			Int("port", a.config.Server.Port).
			Str("environment", a.config.Environment).
			Msg("Starting HTTP server")

		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return a.shutdown()
	case err := <-errChan:
		return err
	}
}

func (a *App) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return a.shutdown()
}

func (a *App) shutdown() error {
	a.logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, fn := range a.onShutdown {
		fn()
	}

	if a.jackpotFeedCancel != nil {
		a.jackpotFeedCancel()
	}
	a.jackpotService.Stop()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Error during server shutdown")
		return err
	}

	a.logger.Info().Msg("Server shutdown complete")
	return nil
}

// Config returns the application configuration
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the application logger
func (a *App) Logger() zerolog.Logger {
	return a.logger
}
