package jobs

import (
	"context"
	"time"

	"github.com/emrgen/filesearch/internal/model"
	"github.com/emrgen/filesearch/internal/store"
	"github.com/sirupsen/logrus"
)

// StatusTask periodically logs the registry shape, a cheap liveness signal
// in the server logs.
type StatusTask struct {
	store store.Store
}

func NewStatusTask(store store.Store) *StatusTask {
	return &StatusTask{store: store}
}

func (s *StatusTask) Name() string {
	return "registry_status"
}

func (s *StatusTask) Schedule() string {
	return "@every 15m"
}

func (s *StatusTask) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	links, err := s.store.ListSyncLinks(ctx, "")
	if err != nil {
		logrus.Errorf("registry status: %v", err)
		return
	}

	counts := map[string]int{}
	for _, link := range links {
		counts[link.Status]++
	}

	logrus.Infof("registry: %d links (%d synced, %d pending, %d syncing, %d error)",
		len(links), counts[model.StatusSynced], counts[model.StatusPending],
		counts[model.StatusSyncing], counts[model.StatusError])
}
