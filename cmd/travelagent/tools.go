package main

import (
	"fmt"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool"
	_ "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool/builtin"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/tool/formatter"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/travel"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools [name]",
	Short: "List the tools the assistant can call",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFlag, _ := cmd.Flags().GetString("output")
		format, err := formatter.ParseOutputFormat(outputFlag)
		if err != nil {
			return err
		}
		f, err := formatter.NewFormatterFactory().Create(format)
		if err != nil {
			return err
		}

		serpCfg := config.SerpAPIConfig{}
		if cfg != nil {
			serpCfg = cfg.Tools.SerpAPI
		}
		views, err := toolViews(serpCfg)
		if err != nil {
			return err
		}

		var out string
		if len(args) == 1 {
			name := tool.NormalizeToolName(args[0])
			var match *formatter.ToolView
			for i := range views {
				if views[i].Name == name {
					match = &views[i]
					break
				}
			}
			if match == nil {
				return fmt.Errorf("tool not found: %s", args[0])
			}
			out, err = f.FormatTool(match)
		} else {
			out, err = f.FormatTools(views)
		}
		if err != nil {
			return fmt.Errorf("failed to format tools: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func toolViews(serpCfg config.SerpAPIConfig) ([]formatter.ToolView, error) {
	finder, err := travel.NewFinderFromConfig(serpCfg)
	if err != nil {
		return nil, err
	}
	registry, err := tool.NewBuiltinRegistry(tool.BuiltinOptions{Finder: finder})
	if err != nil {
		return nil, err
	}
	return formatter.FromDescriptors(registry.GetDescriptors()), nil
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.Flags().StringP("output", "o", string(formatter.OutputFormatTable), "output format (table, json, yaml)")
}
