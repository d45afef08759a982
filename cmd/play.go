package cmd

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/stepscope/internal/app"
	"github.com/Rorical/stepscope/internal/catalog"
)

var (
	playTarget target
	playPick   bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the interactive player",
	Long: `Open the interactive player on a catalog theme and mode or on any
sequence directory. Use --pick to choose the theme and mode from a menu.`,
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := app.Options{Selection: playTarget.selection(), SequenceID: playTarget.sequence}
	if playPick && opts.SequenceID == "" {
		cat, err := catalog.Load(os.DirFS(cfg.Settings().Assets))
		if err != nil {
			return err
		}
		if opts.Selection, err = pickSelection(cat); err != nil {
			return err
		}
	}

	application, err := app.NewApplication(cfg, opts)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Stop()

	return application.Start()
}

// pickSelection asks for a theme and then a mode.
func pickSelection(cat *catalog.Catalog) (catalog.Selection, error) {
	var sel catalog.Selection

	themes := promptui.Select{
		Label: "Theme",
		Items: cat.Themes,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "▸ {{ .Name | cyan }} ({{ .ID }})",
			Inactive: "  {{ .Name }} ({{ .ID }})",
			Selected: "Theme: {{ .Name | green }}",
		},
	}
	i, _, err := themes.Run()
	if err != nil {
		return sel, fmt.Errorf("selection failed: %w", err)
	}
	sel.Theme = cat.Themes[i].ID

	modes := promptui.Select{
		Label: "Mode",
		Items: cat.Modes,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "▸ {{ .ID | cyan }}  {{ .Description }}",
			Inactive: "  {{ .ID }}  {{ .Description }}",
			Selected: "Mode: {{ .ID | green }}",
		},
	}
	if i, _, err = modes.Run(); err != nil {
		return sel, fmt.Errorf("selection failed: %w", err)
	}
	sel.Mode = cat.Modes[i].ID
	return sel, nil
}

func init() {
	playTarget.register(playCmd)
	playCmd.Flags().BoolVar(&playPick, "pick", false, "choose theme and mode interactively")
	rootCmd.Flags().BoolVar(&playPick, "pick", false, "choose theme and mode interactively")
	rootCmd.AddCommand(playCmd)
}
