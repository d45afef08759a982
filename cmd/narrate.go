package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/Rorical/stepscope/internal/narrate"
	"github.com/Rorical/stepscope/internal/utils"
)

var narrateTarget target

var narrateCmd = &cobra.Command{
	Use:   "narrate",
	Short: "Ask a chat model to describe how the image emerges",
	Long: `Load a sequence, then let the active profile's chat model inspect its
analysis through tool calls and describe the generation in prose.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ws, err := openWorkspace()
		if err != nil {
			return err
		}
		client, err := narrate.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("%w: run 'stepscope profile add' first", err)
		}
		id, err := ws.Resolve(narrateTarget.sequence, narrateTarget.selection())
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		seq, err := ws.Load(ctx, id)
		if err != nil {
			return err
		}
		text, err := narrate.New(client, cfg.GetModel(), ws.Logger).Narrate(ctx, seq, ws.Analyzer)
		if err != nil {
			return err
		}
		fmt.Println(utils.RenderMarkdown(text))
		return nil
	},
}

func init() {
	narrateTarget.register(narrateCmd)
	rootCmd.AddCommand(narrateCmd)
}
