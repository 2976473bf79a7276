package task

import (
	"time"

	"github.com/landonvance1/BookSharingApp/pkg/safe_close"
	"go.uber.org/zap"
)

// Manager owns the scheduler and wires up the background tasks.
type Manager struct {
	scheduler *Scheduler
	logger    *zap.Logger
}

func NewManager(logger *zap.Logger, sc *safe_close.SafeClose) *Manager {
	return &Manager{
		scheduler: NewScheduler(logger, sc),
		logger:    logger,
	}
}

// RegisterNotificationPoll registers the unread-notification poll loop.
func (m *Manager) RegisterNotificationPoll(svc NotificationRefresher, interval time.Duration) {
	if interval <= 0 {
		m.logger.Info("notification poll disabled (no interval configured)")
		return
	}
	m.scheduler.AddTask(NewNotificationPollTask(svc, interval, m.logger))
}

// RegisterHubGuard registers the realtime recovery loop.
func (m *Manager) RegisterHubGuard(hub HubController, creds CredentialSource, interval time.Duration) {
	if interval <= 0 {
		m.logger.Info("hub guard disabled (no interval configured)")
		return
	}
	m.scheduler.AddTask(NewHubGuardTask(hub, creds, interval, m.logger))
}

// Start launches all registered tasks.
func (m *Manager) Start() {
	m.scheduler.Start()
}
