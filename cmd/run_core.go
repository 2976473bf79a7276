package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	internalApp "github.com/landonvance1/BookSharingApp/internal/app"
	"github.com/landonvance1/BookSharingApp/internal/task"
	"github.com/landonvance1/BookSharingApp/pkg/logger"
	"github.com/landonvance1/BookSharingApp/pkg/safe_close"

	"go.uber.org/zap"
)

// Core is the running daemon: config, logger, the app container and the
// shared shutdown lifecycle.
type Core struct {
	logger *zap.Logger
	config *internalApp.AppConfig
	sc     *safe_close.SafeClose
	app    *internalApp.App
}

func NewCore(runEnv *runFlags) (*Core, error) {

	appConfig, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	c := &Core{
		config: appConfig,
		sc:     safe_close.NewSafeClose(),
	}

	if err := initLoggerWithConfig(c, appConfig); err != nil {
		return nil, fmt.Errorf("initLogger: %w", err)
	}

	if err := initStorageWithConfig(appConfig); err != nil {
		return nil, fmt.Errorf("initStorage: %w", err)
	}

	app, err := internalApp.NewApp(appConfig, c.logger, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create app container: %w", err)
	}
	c.app = app

	checkCredentials(c)

	if err := app.Connect(); err != nil {
		// REST keeps working; the hub guard task retries the connection
		c.logger.Warn("realtime hub connect failed", zap.Error(err))
	}

	initScheduler(c)

	banner := `
    ____              __      _____ __
   / __ )____  ____  / /__   / ___// /_  ____ _________
  / __  / __ \/ __ \/ //_/   \__ \/ __ \/ __ '/ ___/ _ \
 / /_/ / /_/ / /_/ / ,<     ___/ / / / / /_/ / /  /  __/
/_____/\____/\____/_/|_|   /____/_/ /_/\__,_/_/   \___/  `
	c.logger.Warn(fmt.Sprintf("%s\n\n%s v%s\nGit: %s\nBuildTime: %s\n", banner, internalApp.Name, internalApp.Version, internalApp.GitTag, internalApp.BuildTime))

	c.logger.Warn("config loaded", zap.String("path", configRealpath))

	// app container shutdown rides the shared close lifecycle
	c.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
		defer cancel()

		if err := c.app.Shutdown(ctx); err != nil {
			c.logger.Error("failed to shutdown app container", zap.Error(err))
		} else {
			c.logger.Info("App container shutdown gracefully")
		}
	})

	return c, nil
}

// checkCredentials warns when no access token is available yet.
func checkCredentials(c *Core) {
	token, err := c.app.Creds.Token()
	if err != nil {
		c.logger.Warn("credential store error", zap.Error(err))
		return
	}
	if token == "" {
		c.logger.Warn("no access token found, store one with the 'token set' command",
			zap.String("file", c.config.Security.TokenFile))
	}
}

func initScheduler(c *Core) {
	manager := task.NewManager(c.logger, c.sc)

	manager.RegisterNotificationPoll(c.app.NotificationService, c.config.GetPollInterval())
	manager.RegisterHubGuard(c.app.Hub, c.app.Creds, c.config.GetGuardInterval())

	manager.Start()
}

func initLoggerWithConfig(c *Core, cfg *internalApp.AppConfig) error {
	lg, err := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Production: cfg.Log.Production,
	})
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	c.logger = lg

	return nil
}

// initStorageWithConfig creates the writable directories.
func initStorageWithConfig(cfg *internalApp.AppConfig) error {
	dirs := []string{
		filepath.Dir(cfg.Log.File),
		filepath.Dir(cfg.Security.TokenFile),
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetApp returns the app container.
func (c *Core) GetApp() *internalApp.App {
	return c.app
}

// GetConfig returns the app configuration.
func (c *Core) GetConfig() *internalApp.AppConfig {
	return c.config
}
