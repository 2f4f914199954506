package cli

import (
	"fmt"

	"github.com/davarch/cctray-watcher/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable <pipeline_name>",
	Short: "Enable pipeline by name in config.yaml",
	Args:  cobra.MatchAll(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], true)
	},
}

func setEnabled(name string, enabled bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	changed := false
	for i := range cfg.Pipelines {
		if cfg.Pipelines[i].DisplayName() == name {
			if cfg.Pipelines[i].Enabled != enabled {
				cfg.Pipelines[i].Enabled = enabled
				changed = true
			}
		}
	}

	verb := "enabled"
	if !enabled {
		verb = "disabled"
	}

	if !changed {
		fmt.Printf("no change (pipeline %q already %s or not found)\n", name, verb)
		return nil
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}

	fmt.Printf("%s: %s\n", verb, name)
	return nil
}

func pipelineNameCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	names := make([]string, 0, len(cfg.Pipelines))
	for _, p := range cfg.Pipelines {
		names = append(names, p.DisplayName())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	enableCmd.ValidArgsFunction = pipelineNameCompletion
	rootCmd.AddCommand(enableCmd)
}
