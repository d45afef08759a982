package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Rorical/stepscope/internal/catalog"
	"github.com/Rorical/stepscope/internal/sequence"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	presentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List themes, modes and available sequences",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ws, err := openWorkspace()
		if err != nil {
			return err
		}
		resident := map[string]bool{}
		found, err := sequence.Sequences(ws.Assets)
		if err != nil {
			ws.Logger.Warn("scan assets", "error", err)
		}
		for _, id := range found {
			resident[id] = true
		}
		mark := func(id string) string {
			if resident[id] {
				return presentStyle.Render("✓ " + id)
			}
			return mutedStyle.Render("  " + id)
		}

		cat := ws.Catalog
		fmt.Println(headingStyle.Render("Themes"))
		for _, t := range cat.Themes {
			fmt.Printf("  %-14s %s %s\n", t.ID, t.Name, mutedStyle.Render(fmt.Sprintf("(seed %d)", t.Seed)))
		}
		fmt.Println(headingStyle.Render("Modes"))
		for _, m := range cat.Modes {
			fmt.Printf("  %-14s %2d steps  cfg %-4.1f %s\n", m.ID, m.Steps, m.Guidance, m.Description)
		}

		fmt.Println(headingStyle.Render("Sequences") + " " + mutedStyle.Render(ws.Settings.Assets))
		for _, t := range cat.Themes {
			for _, m := range cat.Modes {
				id, _ := cat.SequenceID(catalog.Selection{Theme: t.ID, Mode: m.ID})
				fmt.Println(mark(id))
				delete(resident, id)
			}
		}
		for _, id := range cat.Experiments {
			fmt.Println(mark(id))
			delete(resident, id)
		}
		for _, id := range found {
			if resident[id] {
				fmt.Println(mark(id))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
