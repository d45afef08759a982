package cmd

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/stepscope/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage narration API profiles",
	Long:  `Manage the OpenAI-compatible endpoints used by the narrate command.`,
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Active Profile: %s\n\n", cfg.ActiveProfile)
		fmt.Println("Available Profiles:")
		for _, name := range cfg.ProfileNames() {
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			fmt.Printf("  %s%s\n", name, marker)
			printProfile(cfg.Profiles[name], "    ")
			fmt.Println()
		}
		return nil
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		profile, exists := cfg.Profiles[args[0]]
		if !exists {
			return fmt.Errorf("profile '%s' does not exist", args[0])
		}
		fmt.Printf("Profile: %s\n", args[0])
		printProfile(profile, "")
		return nil
	},
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a new profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		name := ""
		if len(args) > 0 {
			name = args[0]
		} else if name, err = (&promptui.Prompt{Label: "Profile name"}).Run(); err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}
		if _, exists := cfg.Profiles[name]; exists {
			return fmt.Errorf("profile '%s' already exists", name)
		}

		profile, err := promptProfile(config.Profile{Model: config.DefaultModel})
		if err != nil {
			return err
		}
		cfg.Profiles[name] = profile
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Profile '%s' added successfully!\n", name)
		return nil
	},
}

var editProfileCmd = &cobra.Command{
	Use:   "edit [profile-name]",
	Short: "Edit an existing profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		name, err := profileArg(cfg, args, "Select profile to edit", "")
		if err != nil {
			return err
		}

		profile, err := promptProfile(cfg.Profiles[name])
		if err != nil {
			return err
		}
		cfg.Profiles[name] = profile
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Profile '%s' updated successfully!\n", name)
		return nil
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete [profile-name]",
	Short: "Delete a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		name, err := profileArg(cfg, args, "Select profile to delete", "")
		if err != nil {
			return err
		}

		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Delete profile '%s'? (y/N)", name),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			fmt.Println("Deletion cancelled")
			return nil
		}

		delete(cfg.Profiles, name)
		// The last profile is replaced by an empty default one.
		if len(cfg.Profiles) == 0 {
			cfg.Profiles["default"] = config.Profile{Model: config.DefaultModel}
		}
		if cfg.ActiveProfile == name {
			cfg.ActiveProfile = cfg.ProfileNames()[0]
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Profile '%s' deleted successfully!\n", name)
		return nil
	},
}

var switchProfileCmd = &cobra.Command{
	Use:   "switch [profile-name]",
	Short: "Switch to a different profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		name, err := profileArg(cfg, args, "Select profile to switch to", cfg.ActiveProfile)
		if err != nil {
			return err
		}
		if err := cfg.UseProfile(name); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Switched to profile '%s'\n", name)
		return nil
	},
}

// profileArg returns the named profile or lets the user pick one, leaving
// out exclude.
func profileArg(cfg *config.Config, args []string, label, exclude string) (string, error) {
	if len(args) > 0 {
		if _, exists := cfg.Profiles[args[0]]; !exists {
			return "", fmt.Errorf("profile '%s' does not exist", args[0])
		}
		return args[0], nil
	}

	var names []string
	for _, name := range cfg.ProfileNames() {
		if name != exclude {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no profiles available")
	}
	prompt := promptui.Select{Label: label, Items: names}
	_, name, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection failed: %w", err)
	}
	return name, nil
}

// promptProfile asks for every profile field, offering current values.
func promptProfile(p config.Profile) (config.Profile, error) {
	fields := []struct {
		label string
		value *string
		mask  rune
	}{
		{"API Key", &p.APIKey, '*'},
		{"Model", &p.Model, 0},
		{"Base URL (optional)", &p.BaseURL, 0},
	}
	for _, f := range fields {
		prompt := promptui.Prompt{Label: f.label, Default: *f.value, Mask: f.mask}
		v, err := prompt.Run()
		if err != nil {
			return p, fmt.Errorf("prompt failed: %w", err)
		}
		*f.value = v
	}
	return p, nil
}

func printProfile(p config.Profile, indent string) {
	fmt.Printf("%sModel: %s\n", indent, p.Model)
	if p.BaseURL != "" {
		fmt.Printf("%sBase URL: %s\n", indent, p.BaseURL)
	}
	hasKey := "Not set"
	if p.APIKey != "" {
		hasKey = "Set (hidden)"
	}
	fmt.Printf("%sAPI Key: %s\n", indent, hasKey)
}

func init() {
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(deleteProfileCmd)
	profileCmd.AddCommand(switchProfileCmd)
}
