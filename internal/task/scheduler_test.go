package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/landonvance1/BookSharingApp/pkg/chathub"
	"github.com/landonvance1/BookSharingApp/pkg/code"
	"github.com/landonvance1/BookSharingApp/pkg/safe_close"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingTask struct {
	runs       int32
	interval   time.Duration
	startupRun bool
}

func (t *countingTask) Name() string                { return "counting" }
func (t *countingTask) LoopInterval() time.Duration { return t.interval }
func (t *countingTask) IsStartupRun() bool          { return t.startupRun }
func (t *countingTask) Run(ctx context.Context) error {
	atomic.AddInt32(&t.runs, 1)
	return nil
}

func TestScheduler_RunsOnStartupAndOnTicks(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)

	task := &countingTask{interval: 10 * time.Millisecond, startupRun: true}
	s.AddTask(task)
	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&task.runs) >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.GreaterOrEqual(t, atomic.LoadInt32(&task.runs), int32(3))

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())

	settled := atomic.LoadInt32(&task.runs)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, atomic.LoadInt32(&task.runs), "no runs after close")
}

type fakeRefresher struct {
	err    error
	count  int
	unread int
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	f.count++
	return f.err
}
func (f *fakeRefresher) UnreadCount() int { return f.unread }

func TestNotificationPollTask_UnauthorizedIsNotAFailure(t *testing.T) {
	svc := &fakeRefresher{err: code.ErrorUnauthorized}
	task := NewNotificationPollTask(svc, time.Minute, zap.NewNop())

	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, 1, svc.count)

	svc.err = code.ErrorNetwork
	require.Error(t, task.Run(context.Background()))
}

type fakeHub struct {
	status chathub.ConnectionStatus
	inits  int
}

func (f *fakeHub) Status() chathub.ConnectionStatus { return f.status }
func (f *fakeHub) Initialize() error {
	f.inits++
	f.status = chathub.StatusConnected
	return nil
}

type fakeCreds struct{ token string }

func (f *fakeCreds) Token() (string, error) { return f.token, nil }

func TestHubGuardTask_OnlyRevivesFailedHubWithCredentials(t *testing.T) {
	hub := &fakeHub{status: chathub.StatusConnected}
	task := NewHubGuardTask(hub, &fakeCreds{token: "tok"}, time.Minute, zap.NewNop())

	require.NoError(t, task.Run(context.Background()))
	assert.Zero(t, hub.inits, "healthy hub left alone")

	hub.status = chathub.StatusFailed
	creds := &fakeCreds{}
	guard := NewHubGuardTask(hub, creds, time.Minute, zap.NewNop())
	require.NoError(t, guard.Run(context.Background()))
	assert.Zero(t, hub.inits, "no credentials, no revive")

	creds.token = "tok"
	require.NoError(t, guard.Run(context.Background()))
	assert.Equal(t, 1, hub.inits)
	assert.Equal(t, chathub.StatusConnected, hub.status)
}
