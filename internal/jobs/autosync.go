package jobs

import (
	"context"
	"time"

	"github.com/emrgen/filesearch/internal/service"
	"github.com/sirupsen/logrus"
)

// sweepTimeout bounds one full sweep. Individual attempts carry their own
// shorter timeout inside the sync service.
const sweepTimeout = 30 * time.Minute

// AutoSyncTask sweeps the auto links of one source kind and syncs the due
// ones. One task instance exists per source kind so a slow Drive sweep never
// delays the local one.
type AutoSyncTask struct {
	syncer *service.SyncService
	kind   string
	cron   string
}

func NewAutoSyncTask(kind, schedule string, syncer *service.SyncService) *AutoSyncTask {
	return &AutoSyncTask{
		syncer: syncer,
		kind:   kind,
		cron:   schedule,
	}
}

func (a *AutoSyncTask) Name() string {
	return "autosync_" + a.kind
}

func (a *AutoSyncTask) Schedule() string {
	return a.cron
}

func (a *AutoSyncTask) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	synced, err := a.syncer.SyncAllAuto(ctx, a.kind)
	if err != nil {
		logrus.Errorf("auto sync sweep (%s): %v", a.kind, err)
		return
	}

	if synced > 0 {
		logrus.Infof("auto sync sweep (%s): synced %d links", a.kind, synced)
	}
}
