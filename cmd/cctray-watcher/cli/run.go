package cli

import (
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/davarch/cctray-watcher/internal/application"
	"github.com/davarch/cctray-watcher/internal/domain"
	"github.com/davarch/cctray-watcher/internal/infrastructure/cache_fs"
	"github.com/davarch/cctray-watcher/internal/infrastructure/config"
	"github.com/davarch/cctray-watcher/internal/infrastructure/feed_http"
	"github.com/davarch/cctray-watcher/internal/infrastructure/logging"
	"github.com/davarch/cctray-watcher/internal/infrastructure/notify_libnotify"
	"github.com/davarch/cctray-watcher/internal/infrastructure/secrets_env"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run polling scheduler",
	Run: func(cmd *cobra.Command, args []string) {
		log := logging.New()
		defer func() { _ = log.Sync() }()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			log.Fatal("config", zap.Error(err))
		}

		fetcher := feed_http.New(cfg.HTTP.Timeout)
		store := secrets_env.New(cfg.Auth, cfg.Secrets.EnvFile)
		note := notify_libnotify.NewSoft()
		cache := cache_fs.New(cfg.Cache.Path)

		pipelines := enabledPipelines(cfg)
		if len(pipelines) == 0 {
			log.Fatal("no enabled pipelines")
		}

		sched := application.NewScheduler(log, fetcher, store, domain.SystemClock{}, note, cache,
			pipelines, cfg.Poll.Interval, cfg.Poll.PauseFile)
		watchAndReload(cfgPath, log, sched)

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		log.Info("start",
			zap.String("version", version),
			zap.Int("pipelines", len(pipelines)),
			zap.Duration("every", cfg.Poll.Interval),
			zap.String("cache", cfg.Cache.Path),
			zap.String("pause_file", cfg.Poll.PauseFile),
		)
		sched.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func enabledPipelines(cfg config.Config) []*domain.Pipeline {
	var out []*domain.Pipeline
	for _, p := range cfg.Pipelines {
		if !p.Enabled {
			continue
		}
		out = append(out, &domain.Pipeline{
			Name: p.DisplayName(),
			Feed: domain.Feed{URL: p.FeedURL, Project: p.Project},
		})
	}
	return out
}

func watchAndReload(cfgPath string, log *zap.Logger, sched *application.Scheduler) {
	if cfgPath == "" {
		return
	}

	dir := filepath.Dir(cfgPath)
	base := filepath.Base(cfgPath)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("fsnotify init failed", zap.Error(err))
		return
	}

	go func() {
		defer func() { _ = w.Close() }()

		var timer *time.Timer
		fire := func() {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				log.Warn("config reload failed", zap.Error(err))
				return
			}
			pipelines := enabledPipelines(cfg)
			if len(pipelines) == 0 {
				log.Warn("config reload: no enabled pipelines")
			}
			sched.UpdatePipelines(pipelines)
		}

		startTimer := func() {
			if timer == nil {
				timer = time.AfterFunc(300*time.Millisecond, fire)
			} else {
				timer.Stop()
				timer.Reset(300 * time.Millisecond)
			}
		}

		if err := w.Add(dir); err != nil {
			log.Warn("fsnotify add dir failed", zap.String("dir", dir), zap.Error(err))
			return
		}

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}

				if filepath.Base(ev.Name) != base {
					continue
				}

				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					startTimer()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("fsnotify error", zap.Error(err))
			}
		}
	}()
}
