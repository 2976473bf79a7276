package task

import (
	"context"
	"time"

	"github.com/landonvance1/BookSharingApp/pkg/chathub"

	"go.uber.org/zap"
)

// HubController is the slice of the realtime hub the guard needs.
type HubController interface {
	Status() chathub.ConnectionStatus
	Initialize() error
}

// CredentialSource yields the current access token.
type CredentialSource interface {
	Token() (string, error)
}

// HubGuardTask re-initializes the realtime hub after it has exhausted its
// own reconnect attempts. The hub never leaves Failed by itself; this loop
// is the explicit re-initialize, and it only fires once credentials are
// available again.
type HubGuardTask struct {
	hub      HubController
	creds    CredentialSource
	interval time.Duration
	logger   *zap.Logger
}

func NewHubGuardTask(hub HubController, creds CredentialSource, interval time.Duration, logger *zap.Logger) *HubGuardTask {
	return &HubGuardTask{
		hub:      hub,
		creds:    creds,
		interval: interval,
		logger:   logger,
	}
}

func (t *HubGuardTask) Name() string {
	return "hub_guard"
}

func (t *HubGuardTask) LoopInterval() time.Duration {
	return t.interval
}

func (t *HubGuardTask) IsStartupRun() bool {
	return false
}

func (t *HubGuardTask) Run(ctx context.Context) error {
	if t.hub.Status() != chathub.StatusFailed {
		return nil
	}
	token, err := t.creds.Token()
	if err != nil || token == "" {
		return nil
	}
	t.logger.Info("hub guard re-initializing failed connection")
	return t.hub.Initialize()
}
