package jobs

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

// Task is a named unit of background work.
type Task interface {
	Name() string
	Run()
}

// CronTask runs on a cron schedule. A firing that overlaps a still running
// instance of the same task is skipped, never queued.
type CronTask interface {
	Task
	Schedule() string
}

// DaemonTask runs for the lifetime of the process, started once.
type DaemonTask interface {
	Task
	Stop()
}

// TaskExecutor drives the background work: cron tasks on their schedules and
// daemons in their own goroutines.
type TaskExecutor struct {
	cron    *cron.Cron
	crons   []CronTask
	daemons []DaemonTask
	running mapset.Set[string]
}

func NewTaskExecutor(crons []CronTask, daemons []DaemonTask) *TaskExecutor {
	return &TaskExecutor{
		cron:    cron.New(),
		crons:   crons,
		daemons: daemons,
		running: mapset.NewSet[string](),
	}
}

// Run registers the cron tasks, starts the daemons and starts the cron loop.
func (t *TaskExecutor) Run() error {
	for _, task := range t.crons {
		err := t.cron.AddFunc(task.Schedule(), func() {
			// Add reports false when the name is already in the set, that is
			// the previous firing still running
			if !t.running.Add(task.Name()) {
				logrus.Warnf("task %s is still running, skipped", task.Name())
				return
			}
			defer t.running.Remove(task.Name())

			task.Run()
		})
		if err != nil {
			return fmt.Errorf("schedule task %s (%s): %v", task.Name(), task.Schedule(), err)
		}

		logrus.Infof("scheduled task %s at %s", task.Name(), task.Schedule())
	}

	for _, daemon := range t.daemons {
		logrus.Infof("starting task %s", daemon.Name())
		go daemon.Run()
	}

	t.cron.Start()
	return nil
}

// Stop halts the cron loop and signals the daemons.
func (t *TaskExecutor) Stop() {
	logrus.Infof("stopping all tasks")
	t.cron.Stop()
	for _, daemon := range t.daemons {
		daemon.Stop()
	}
}
