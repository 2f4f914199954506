package application

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/davarch/cctray-watcher/internal/domain"
	feedsync "github.com/davarch/cctray-watcher/internal/sync"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scheduler owns the monitored pipeline set and drives the polling loop.
// Each tick partitions the pipelines by feed URL and refreshes the groups
// concurrently; groups are disjoint, so no pipeline is ever touched by two
// refreshes at once. After a full cycle it emits notifications for observed
// build transitions and writes the status snapshot.
//
// Pipeline entries are mutated only inside a cycle, under cycleMu. A reload
// never touches the live entries: it stashes the replacement set, which is
// applied between cycles.
type Scheduler struct {
	log       *zap.Logger
	fetcher   domain.Fetcher
	store     domain.SecretStore
	clock     domain.Clock
	note      domain.Notifier
	cache     domain.StatusCache
	every     time.Duration
	pauseFile string

	cycleMu sync.Mutex // held for a whole refresh cycle

	mu         sync.RWMutex // guards pipelines and the pending swap
	pipelines  []*domain.Pipeline
	pending    []*domain.Pipeline
	hasPending bool
}

func NewScheduler(l *zap.Logger, fetcher domain.Fetcher, store domain.SecretStore, clock domain.Clock,
	note domain.Notifier, cache domain.StatusCache, pipelines []*domain.Pipeline,
	every time.Duration, pauseFile string) *Scheduler {
	return &Scheduler{
		log: l, fetcher: fetcher, store: store, clock: clock, note: note, cache: cache,
		pipelines: pipelines, every: every, pauseFile: pauseFile,
	}
}

// Pipelines returns the current set. The entries are mutated only during a
// tick; callers should treat them as read-only.
func (s *Scheduler) Pipelines() []*domain.Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Pipeline, len(s.pipelines))
	copy(out, s.pipelines)
	return out
}

// UpdatePipelines swaps the monitored set. The swap takes effect at the start
// of the next cycle, where entries that identify the same pipeline (same feed
// URL and project) keep their known status. Reading the old entries here would
// race with a refresh in flight, so the replacement set is only stashed.
func (s *Scheduler) UpdatePipelines(pipelines []*domain.Pipeline) {
	s.mu.Lock()
	s.pending = pipelines
	s.hasPending = true
	s.mu.Unlock()
	s.log.Info("config reloaded", zap.Int("pipelines", len(pipelines)))
}

// applyPending installs a stashed replacement set and returns the live one.
// Called with cycleMu held, so no refresh is touching the old entries.
func (s *Scheduler) applyPending() []*domain.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasPending {
		known := make(map[string]*domain.Pipeline, len(s.pipelines))
		for _, p := range s.pipelines {
			known[pipelineKey(p)] = p
		}
		for _, p := range s.pending {
			if old, ok := known[pipelineKey(p)]; ok {
				p.Status = old.Status
				p.ConnectionError = old.ConnectionError
				p.WebURL = old.WebURL
			}
		}
		s.pipelines = s.pending
		s.pending = nil
		s.hasPending = false
	}

	out := make([]*domain.Pipeline, len(s.pipelines))
	copy(out, s.pipelines)
	return out
}

func pipelineKey(p *domain.Pipeline) string {
	return p.Feed.URL + " :: " + p.Feed.Project
}

func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.every)
	defer t.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.isPaused() {
		s.log.Debug("paused: skipping poll")
		return
	}
	s.RefreshAll(ctx)
}

func (s *Scheduler) isPaused() bool {
	if s.pauseFile == "" {
		return false
	}
	_, err := os.Stat(s.pauseFile)
	return err == nil
}

type preState struct {
	activity  domain.Activity
	lastLabel string
}

// RefreshAll runs one full cycle over all feed groups. Cycles are serialized:
// a pending pipeline swap is applied before the first fetch, never during one.
func (s *Scheduler) RefreshAll(ctx context.Context) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	pipelines := s.applyPending()
	if len(pipelines) == 0 {
		return
	}

	before := make(map[*domain.Pipeline]preState, len(pipelines))
	for _, p := range pipelines {
		pre := preState{activity: domain.ActivityOther}
		if p.Status != nil {
			pre.activity = p.Status.Activity
			if p.Status.LastBuild != nil {
				pre.lastLabel = p.Status.LastBuild.Label
			}
		}
		before[p] = pre
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, group := range groupByFeed(pipelines) {
		reader := feedsync.NewFeedReader(group, s.fetcher, s.store, s.clock)
		g.Go(func() error {
			reader.Refresh(gctx)
			return nil
		})
	}
	_ = g.Wait()

	for _, p := range pipelines {
		s.notifyTransitions(ctx, p, before[p])
		if p.ConnectionError != "" {
			s.log.Warn("refresh failed",
				zap.String("pipeline", p.Name),
				zap.String("feed", p.Feed.URL),
				zap.String("error", p.ConnectionError),
			)
		}
	}

	if s.cache != nil {
		if err := s.cache.Write(ctx, pipelines); err != nil {
			s.log.Warn("cache write failed", zap.Error(err))
		}
	}
}

// groupByFeed partitions pipelines by feed URL, preserving order within a
// group so one fetch serves all of them.
func groupByFeed(pipelines []*domain.Pipeline) [][]*domain.Pipeline {
	index := make(map[string]int)
	var groups [][]*domain.Pipeline
	for _, p := range pipelines {
		i, ok := index[p.Feed.URL]
		if !ok {
			i = len(groups)
			index[p.Feed.URL] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], p)
	}
	return groups
}

func (s *Scheduler) notifyTransitions(ctx context.Context, p *domain.Pipeline, pre preState) {
	if s.note == nil || p.Status == nil || p.ConnectionError != "" {
		return
	}

	wasBuilding := pre.activity == domain.ActivityBuilding
	isBuilding := p.Status.Activity == domain.ActivityBuilding

	if !wasBuilding && isBuilding {
		_ = s.note.Notify(ctx, "▶️ Build started", p.Name, p.WebURL)
	}
	if wasBuilding && !isBuilding && p.Status.LastBuild != nil {
		body := p.Name
		if label := p.Status.LastBuild.Label; label != "" && label != pre.lastLabel {
			body = p.Name + " (" + label + ")"
		}
		_ = s.note.Notify(ctx, titleFor(p.Status.LastBuild.Result), body, p.WebURL)
	}
}

func titleFor(r domain.BuildResult) string {
	switch r {
	case domain.ResultSuccess:
		return "✅ Build succeeded"
	case domain.ResultFailure:
		return "❌ Build failed"
	default:
		return "ℹ️ Build finished: " + string(r)
	}
}
