// Package task runs the background loops of the client core on a shared
// lifecycle, currently the notification poll and the credential watch.
package task

import (
	"context"
	"time"

	"github.com/landonvance1/BookSharingApp/pkg/safe_close"
	"go.uber.org/zap"
)

// Task is one periodic background job.
type Task interface {
	Name() string                  // task name
	Run(ctx context.Context) error // execute once
	LoopInterval() time.Duration   // tick interval, <=0 disables the loop
	IsStartupRun() bool            // run once immediately on start
}

// Scheduler drives registered tasks until the close signal fires.
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	sc     *safe_close.SafeClose
}

func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		sc:     sc,
	}
}

func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start launches every registered task.
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		s.startTask(task)
	}
}

func (s *Scheduler) startTask(task Task) {

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		if task.IsStartupRun() {
			s.logger.Info("task running", zap.String("name", task.Name()), zap.Bool("startupRun", true))
			go func() {
				defer func() {
					if r := recover(); r != nil {
						s.logger.Error("task startupRun panic",
							zap.String("name", task.Name()),
							zap.Any("panic", r),
							zap.Stack("stack"))
					}
				}()
				if err := task.Run(context.Background()); err != nil {
					s.logger.Error("task running error",
						zap.String("name", task.Name()),
						zap.Bool("startupRun", true),
						zap.Error(err))
				}
			}()
		}

		if task.LoopInterval() <= 0 {
			return
		}

		ticker := time.NewTicker(task.LoopInterval())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				func() {
					defer func() {
						if r := recover(); r != nil {
							s.logger.Error("task loopRun panic",
								zap.String("name", task.Name()),
								zap.Any("panic", r),
								zap.Stack("stack"))
						}
					}()
					if err := task.Run(context.Background()); err != nil {
						s.logger.Error("task running error",
							zap.String("name", task.Name()),
							zap.Bool("loopRun", true),
							zap.Error(err))
					}
				}()
			case <-closeSignal:
				s.logger.Info("task stopped", zap.String("name", task.Name()))
				return
			}
		}
	})
}
