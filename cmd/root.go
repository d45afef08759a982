package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rorical/stepscope/internal/app"
	"github.com/Rorical/stepscope/internal/catalog"
	"github.com/Rorical/stepscope/internal/config"
	"github.com/Rorical/stepscope/internal/logging"
)

var assetsDir string

var rootCmd = &cobra.Command{
	Use:   "stepscope",
	Short: "Play and analyse captured diffusion sequences",
	Long: `stepscope plays back the intermediate frames of a diffusion run with
pixel and latent change heatmaps, side-by-side comparison and step analysis.`,
	SilenceUsage: true,
	RunE:         runPlay,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// target is the sequence a command works on.
type target struct {
	theme    string
	mode     string
	sequence string
}

func (t *target) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.theme, "theme", "", "catalog theme, e.g. deepfake")
	cmd.Flags().StringVar(&t.mode, "mode", "", "catalog mode, e.g. low_steps")
	cmd.Flags().StringVar(&t.sequence, "sequence", "", "sequence directory name, overrides --theme and --mode")
}

func (t *target) selection() catalog.Selection {
	return catalog.Selection{Theme: catalog.ThemeID(t.theme), Mode: catalog.ModeID(t.mode)}
}

// loadConfig reads the config and applies the --assets flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.SetAssets(assetsDir)
	return cfg, nil
}

// openWorkspace prepares the components used by the batch commands, which
// log to stderr.
func openWorkspace() (*config.Config, *app.Workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	settings := cfg.Settings()
	logger := logging.Stderr(settings.LogLevel)
	ws, err := app.OpenWorkspace(settings, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("workspace opened", slog.String("assets", settings.Assets))
	return cfg, ws, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&assetsDir, "assets", "", "directory holding the generated sequences")
	playTarget.register(rootCmd)

	rootCmd.AddCommand(profileCmd)
}
