// Package app provides the application container wiring config, services
// and the realtime hub together.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/landonvance1/BookSharingApp/internal/api"
	"github.com/landonvance1/BookSharingApp/internal/auth"
	"github.com/landonvance1/BookSharingApp/internal/service"
	"github.com/landonvance1/BookSharingApp/pkg/chathub"
	"github.com/landonvance1/BookSharingApp/pkg/code"

	"go.uber.org/zap"
)

// App is the application container. It owns the credential store, the REST
// client, the realtime hub and the services built on top of them.
type App struct {
	config *AppConfig
	logger *zap.Logger

	Creds auth.Store
	Api   *api.Client
	Hub   *chathub.Hub

	ShareService        service.ShareService
	ChatService         service.ChatService
	NotificationService service.NotificationService

	shutdownCh chan struct{}
}

// NewApp builds the container from config. The credential store may be nil,
// in which case tokens are read from the configured token file.
func NewApp(cfg *AppConfig, logger *zap.Logger, creds auth.Store) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if creds == nil {
		creds = auth.NewFileStore(cfg.Security.TokenFile)
	}

	code.SetGlobalDefaultLang(cfg.App.Language)

	a := &App{
		config:     cfg,
		logger:     logger,
		Creds:      creds,
		shutdownCh: make(chan struct{}),
	}

	a.Api = api.NewClient(api.Config{
		BaseURL:      cfg.Api.BaseURL,
		Timeout:      cfg.GetApiTimeout(),
		ReadRetries:  cfg.Api.ReadRetries,
		RetryBackoff: cfg.GetRetryBackoff(),
		TraceHeader:  cfg.Api.TraceHeader,
	}, creds, logger)

	a.Hub = chathub.NewHub(chathub.Config{
		Endpoint:             cfg.Chat.Endpoint,
		PingInterval:         cfg.GetPingInterval(),
		ReconnectBase:        cfg.GetReconnectBase(),
		ReconnectCap:         cfg.GetReconnectCap(),
		MaxReconnectAttempts: cfg.Chat.MaxReconnectAttempts,
	}, creds, logger)

	a.ShareService = service.NewShareService(a.Api, logger)
	a.ChatService = service.NewChatService(a.Api, a.Hub, service.ChatOptions{
		PageSize:  cfg.App.DefaultPageSize,
		SendRate:  cfg.Chat.SendRate,
		SendBurst: cfg.Chat.SendBurst,
	}, logger)
	a.NotificationService = service.NewNotificationService(a.Api, logger)

	logger.Info("App container initialized",
		zap.String("apiBaseUrl", cfg.Api.BaseURL),
		zap.String("chatEndpoint", cfg.Chat.Endpoint))

	return a, nil
}

// Config returns the application configuration.
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger returns the logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Connect brings the realtime hub up. A missing credential is reported but
// not fatal; the REST side keeps working and the hub guard retries later.
func (a *App) Connect() error {
	if err := a.Hub.Initialize(); err != nil {
		if code.ErrorAuthenticationMissing.Is(err) {
			a.logger.Warn("realtime hub idle, no credentials available yet")
			return nil
		}
		return err
	}
	return nil
}

// Version returns the build version information.
func (a *App) Version() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// DefaultShutdownTimeout bounds a graceful shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown closes the container: hub first so no callbacks fire into
// services that are going away, then the logger is flushed.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	select {
	case <-a.shutdownCh:
		return nil
	default:
		close(a.shutdownCh)
	}

	a.Hub.Disconnect()

	_ = a.logger.Sync()
	return nil
}

// IsShuttingDown reports whether shutdown has started.
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh exposes the shutdown signal channel.
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}
