package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/davarch/cctray-watcher/internal/application"
	"github.com/davarch/cctray-watcher/internal/domain"
	"github.com/davarch/cctray-watcher/internal/infrastructure/config"
	"github.com/davarch/cctray-watcher/internal/infrastructure/feed_http"
	"github.com/davarch/cctray-watcher/internal/infrastructure/secrets_env"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Poll all feeds once and print pipeline status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		fetcher := feed_http.New(cfg.HTTP.Timeout)
		store := secrets_env.New(cfg.Auth, cfg.Secrets.EnvFile)
		pipelines := enabledPipelines(cfg)

		sched := application.NewScheduler(zap.NewNop(), fetcher, store, domain.SystemClock{},
			nil, nil, pipelines, cfg.Poll.Interval, "")
		sched.RefreshAll(cmd.Context())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tACTIVITY\tLAST BUILD\tLABEL\tDURATION\tERROR")
		for _, p := range pipelines {
			activity, result, label, duration := "-", "-", "-", "-"
			if p.Status != nil {
				activity = string(p.Status.Activity)
				if last := p.Status.LastBuild; last != nil {
					result = string(last.Result)
					if last.Label != "" {
						label = last.Label
					}
					if last.Duration > 0 {
						duration = last.Duration.Round(time.Second).String()
					}
				}
			}
			errMsg := p.ConnectionError
			if errMsg == "" {
				errMsg = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.Name, activity, result, label, duration, errMsg)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
