package di

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"minu.io/hub/internal/application/ports"
	"minu.io/hub/internal/application/services"
	"minu.io/hub/internal/core/connection"
	"minu.io/hub/internal/core/feed"
	"minu.io/hub/internal/infrastructure/api"
	"minu.io/hub/internal/infrastructure/config"
	"minu.io/hub/internal/infrastructure/logging"
	"minu.io/hub/internal/infrastructure/notifications"
	"minu.io/hub/internal/infrastructure/realtime"
	"minu.io/hub/internal/infrastructure/settings"
	"minu.io/hub/internal/interfaces/cli"
)

// defaultReplayInterval paces replayed captures so the dashboard fills
// visibly instead of all at once.
const defaultReplayInterval = 150 * time.Millisecond

// Container holds all application dependencies
type Container struct {
	// Configuration
	ConfigRepo    *config.CompositeConfigRepository
	Config        *ports.Configuration
	ConfigService *services.ConfigurationService

	// Core domain
	Session *feed.Session
	Machine *connection.Machine

	// Infrastructure
	APIGateway    *api.MinuAPIGateway
	Transport     ports.RealtimeTransport
	SettingsStore *settings.FileSettingsStore
	History       *notifications.HistoryLog
	Desktop       ports.DesktopNotifier
	Toasts        *notifications.StderrToastSink

	// Application services
	HubService      *services.HubService
	SettingsService *services.SettingsService

	// CLI
	CLIContainer *cli.CLIContainer

	// Logger
	Logger *logging.SlogGateway
}

// NewContainer creates and configures the dependency injection container
func NewContainer() (*Container, error) {
	container := &Container{
		Logger: logging.NewStderrGateway(ports.LogLevelInfo, false),
	}

	if err := container.initializeComponents(); err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return container, nil
}

// initializeComponents initializes all components with proper dependencies
func (c *Container) initializeComponents() error {
	// 1. Initialize configuration repository
	c.ConfigRepo = config.NewCompositeConfigRepository()

	// 2. Load configuration
	appConfig, err := c.ConfigRepo.Load()
	if err != nil {
		c.Logger.Log(ports.LogLevelWarn, "Failed to load configuration, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		appConfig = c.ConfigRepo.LoadDefault()
	}
	c.Config = appConfig

	// 3. Apply the configured log level
	c.Logger.SetLogLevel(resolveLogLevel(appConfig))

	// 4. Initialize infrastructure components
	c.APIGateway = api.NewMinuAPIGateway(appConfig.APIEndpoint, appConfig.APIKey, c.Logger)
	c.SettingsStore = settings.NewFileSettingsStore("")
	c.History = notifications.NewHistoryLog(appConfig.HistoryPath)
	c.Desktop = buildDesktopNotifier(appConfig, c.Logger)
	c.Toasts = notifications.NewStderrToastSink()

	// 5. Initialize core domain components
	c.Session = feed.NewSession(feed.Config{Capacity: appConfig.BufferSize})
	c.Machine = connection.NewMachine()
	c.Transport = realtime.NewWebSocketClient(appConfig.StreamURL, appConfig.APIKey, c.Logger)

	// 6. Initialize application services
	c.ConfigService = services.NewConfigurationService(c.ConfigRepo, c.Logger)
	c.SettingsService = services.NewSettingsService(c.SettingsStore, c.Logger)
	c.HubService = services.NewHubService(
		c.Session,
		c.Machine,
		c.Transport,
		c.APIGateway,
		c.SettingsStore,
		c.Desktop,
		c.Toasts,
		c.History,
		c.Logger,
	)

	// 7. Initialize CLI container
	c.CLIContainer = &cli.CLIContainer{
		HubService:      c.HubService,
		SettingsService: c.SettingsService,
		ConfigService:   c.ConfigService,
		ConfigRepo:      c.ConfigRepo,
		MainContainer:   c, // Reference to self for override methods
	}

	c.Logger.Log(ports.LogLevelDebug, "Dependency injection container initialized", nil)
	return nil
}

// GetCLIContainer returns the CLI container for command execution
func (c *Container) GetCLIContainer() *cli.CLIContainer {
	return c.CLIContainer
}

// RebuildHubService replaces the hub service with one wired to the
// transport the dashboard flags select. The session and connection
// machine are recreated alongside the transport so a replay or demo
// run starts from an empty feed; sinks, stores, and the API gateway
// are shared with the original graph.
func (c *Container) RebuildHubService(opts cli.HubOptions) (*services.HubService, error) {
	if opts.ReplayPath != "" && opts.Demo {
		return nil, fmt.Errorf("replay and demo modes are mutually exclusive")
	}

	bufferSize := c.Config.BufferSize
	if opts.BufferSize > 0 {
		bufferSize = opts.BufferSize
	}

	var transport ports.RealtimeTransport
	switch {
	case opts.ReplayPath != "":
		transport = realtime.NewReplayTransport(opts.ReplayPath, defaultReplayInterval, c.Logger)
	case opts.Demo:
		transport = realtime.NewDemoTransport(time.Now().UnixNano(), c.Logger)
	default:
		transport = realtime.NewWebSocketClient(c.Config.StreamURL, c.Config.APIKey, c.Logger)
	}

	c.Session = feed.NewSession(feed.Config{Capacity: bufferSize})
	c.Machine = connection.NewMachine()
	c.Transport = transport
	c.HubService = services.NewHubService(
		c.Session,
		c.Machine,
		c.Transport,
		c.APIGateway,
		c.SettingsStore,
		c.Desktop,
		c.Toasts,
		c.History,
		c.Logger,
	)
	c.CLIContainer.HubService = c.HubService

	return c.HubService, nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	c.Logger.Log(ports.LogLevelDebug, "Shutting down application", nil)

	if c.HubService != nil {
		if err := c.HubService.Stop(); err != nil {
			c.Logger.LogError(err, "Error stopping hub service", nil)
		}
	}

	c.Logger.Log(ports.LogLevelDebug, "Application shutdown complete", nil)
	return nil
}

// HealthCheck performs a health check of all components
func (c *Container) HealthCheck(ctx context.Context) error {
	// Check configuration
	if c.ConfigRepo == nil {
		return fmt.Errorf("configuration repository not initialized")
	}

	if _, err := c.ConfigRepo.Load(); err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	// Check API gateway
	if c.APIGateway == nil {
		return fmt.Errorf("API gateway not initialized")
	}

	if err := c.APIGateway.TestConnection(ctx); err != nil {
		return fmt.Errorf("API connectivity test failed: %w", err)
	}

	// Check hub service
	if c.HubService == nil {
		return fmt.Errorf("hub service not initialized")
	}

	return nil
}

// GetVersion returns version information
func (c *Container) GetVersion() map[string]string {
	return map[string]string{
		"version":    cli.Version,
		"build_time": cli.BuildTime,
	}
}

// ProbeBackend verifies backend connectivity with the configured
// endpoint and credentials.
func (c *Container) ProbeBackend() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return c.APIGateway.TestConnection(ctx)
}

// ApplyConfigPathOverride reloads configuration from an explicit file
// and rebuilds everything derived from it: gateway, history log,
// desktop channel, and the hub service.
func (c *Container) ApplyConfigPathOverride(path string) error {
	if path == "" {
		return fmt.Errorf("config path cannot be empty")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file not found: %s", path)
	}

	repo := config.NewCompositeConfigRepositoryAt(path)
	appConfig, err := repo.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}

	c.ConfigRepo = repo
	c.Config = appConfig
	c.Logger.SetLogLevel(resolveLogLevel(appConfig))

	c.APIGateway = api.NewMinuAPIGateway(appConfig.APIEndpoint, appConfig.APIKey, c.Logger)
	c.History = notifications.NewHistoryLog(appConfig.HistoryPath)
	c.Desktop = buildDesktopNotifier(appConfig, c.Logger)
	c.ConfigService = services.NewConfigurationService(repo, c.Logger)

	c.CLIContainer.ConfigRepo = repo
	c.CLIContainer.ConfigService = c.ConfigService

	if _, err := c.RebuildHubService(cli.HubOptions{}); err != nil {
		return fmt.Errorf("failed to rebuild hub service: %w", err)
	}

	c.Logger.Log(ports.LogLevelDebug, "Config path override applied", map[string]interface{}{
		"config_path": path,
	})
	return nil
}

// ApplyAPIEndpointOverride updates the API endpoint at runtime
func (c *Container) ApplyAPIEndpointOverride(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("API endpoint cannot be empty")
	}

	if err := c.APIGateway.UpdateEndpoint(endpoint); err != nil {
		return fmt.Errorf("failed to update API gateway endpoint: %w", err)
	}
	c.Config.APIEndpoint = endpoint

	c.Logger.Log(ports.LogLevelDebug, "API endpoint override applied", map[string]interface{}{
		"endpoint": endpoint,
	})
	return nil
}

// ApplyAPIKeyOverride updates the API key at runtime. The gateway and
// the stream transport both authenticate with the key, so the gateway
// is recreated and the hub service rebuilt around a fresh transport.
func (c *Container) ApplyAPIKeyOverride(apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	c.Config.APIKey = apiKey
	c.APIGateway = api.NewMinuAPIGateway(c.Config.APIEndpoint, apiKey, c.Logger)

	if _, err := c.RebuildHubService(cli.HubOptions{}); err != nil {
		return fmt.Errorf("failed to rebuild hub service: %w", err)
	}

	c.Logger.Log(ports.LogLevelDebug, "API key override applied", nil)
	return nil
}

// ApplyStreamURLOverride updates the stream endpoint at runtime
func (c *Container) ApplyStreamURLOverride(streamURL string) error {
	if streamURL == "" {
		return fmt.Errorf("stream URL cannot be empty")
	}

	c.Config.StreamURL = streamURL
	if _, err := c.RebuildHubService(cli.HubOptions{}); err != nil {
		return fmt.Errorf("failed to rebuild hub service: %w", err)
	}

	c.Logger.Log(ports.LogLevelDebug, "Stream URL override applied", map[string]interface{}{
		"stream_url": streamURL,
	})
	return nil
}

// ApplyLogLevelOverride updates the logging verbosity at runtime
func (c *Container) ApplyLogLevelOverride(level string) error {
	validator := config.NewConfigValidator()
	if err := validator.ValidateLogLevel(level); err != nil {
		return err
	}

	normalized := strings.ToLower(strings.TrimSpace(level))
	c.Config.LogLevel = normalized
	c.Logger.SetLogLevel(ports.LogLevel(normalized))
	return nil
}

// buildDesktopNotifier selects the desktop notification channel from
// the configuration. A configured command takes precedence over a
// webhook; with neither the desktop channel is disabled and the hub
// falls back to toast-only dispatch.
func buildDesktopNotifier(appConfig *ports.Configuration, logger ports.LoggingGateway) ports.DesktopNotifier {
	var inner ports.DesktopNotifier
	switch {
	case appConfig.NotifyCommand != "":
		inner = notifications.NewCommandNotifier(appConfig.NotifyCommand, logger)
	case appConfig.WebhookURL != "":
		inner = notifications.NewWebhookNotifier(appConfig.WebhookURL, logger)
	default:
		return nil
	}

	return notifications.NewRateLimitedNotifier(inner, appConfig.NotifyRatePerMinute, logger)
}

// resolveLogLevel maps the configuration onto a gateway level. Debug
// wins over any configured level.
func resolveLogLevel(appConfig *ports.Configuration) ports.LogLevel {
	if appConfig.Debug {
		return ports.LogLevelDebug
	}

	switch strings.ToLower(strings.TrimSpace(appConfig.LogLevel)) {
	case "debug":
		return ports.LogLevelDebug
	case "warn":
		return ports.LogLevelWarn
	case "error":
		return ports.LogLevelError
	default:
		return ports.LogLevelInfo
	}
}
