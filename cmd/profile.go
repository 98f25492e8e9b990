package cmd

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriPersona/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage model endpoint profiles",
	Long: `A profile names the endpoint the persona talks through: API key, base URL,
the model that writes replies and the judge model that grades them.

Saving a profile only writes the profiles section. RORIPERSONA_* environment
overrides of other settings are not written to the config file.`,
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
		for _, name := range cfg.ProfileNames() {
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			fmt.Printf("  %s%s\n", name, marker)
			printProfile("    ", cfg.Profiles[name])
			fmt.Println()
		}
		return nil
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		name := cfg.ActiveProfile
		if len(args) > 0 {
			name = args[0]
		}
		profile, ok := cfg.Profiles[name]
		if !ok {
			return fmt.Errorf("profile %q does not exist", name)
		}

		fmt.Printf("Profile: %s\n", name)
		printProfile("", profile)
		if profile.JudgeModel == "" {
			fmt.Printf("Judge used: %s\n", judgeFallback(cfg, profile))
		}
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

		var name string
		if len(args) > 0 {
			name = args[0]
		} else if name, err = (&promptui.Prompt{Label: "Profile name", Validate: notEmpty}).Run(); err != nil {
			return err
		}
		if _, exists := cfg.Profiles[name]; exists {
			return fmt.Errorf("profile %q already exists", name)
		}

		profile, err := promptProfile(config.Profile{Model: config.DefaultModel})
		if err != nil {
			return err
		}
		cfg.Profiles[name] = profile
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Profile '%s' added. Run `roripersona use %s` to chat with it.\n", name, name)
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

		fmt.Printf("Profile '%s' updated.\n", name)
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
			Label:     fmt.Sprintf("Delete profile '%s'", name),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			fmt.Println("Deletion cancelled")
			return nil
		}

		if err := cfg.RemoveProfile(name); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Profile '%s' deleted. Active profile: %s\n", name, cfg.ActiveProfile)
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
		if errors.Is(err, errNoChoice) {
			fmt.Println("No other profiles available to switch to")
			return nil
		}
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

var errNoChoice = errors.New("no profiles to choose from")

// profileArg returns the profile named in args, or asks the user to pick one.
// skip is left out of the menu.
func profileArg(cfg *config.Config, args []string, label, skip string) (string, error) {
	if len(args) > 0 {
		if _, ok := cfg.Profiles[args[0]]; !ok {
			return "", fmt.Errorf("profile %q does not exist", args[0])
		}
		return args[0], nil
	}

	names := make([]string, 0, len(cfg.Profiles))
	for _, name := range cfg.ProfileNames() {
		if name != skip {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", errNoChoice
	}

	_, name, err := (&promptui.Select{Label: label, Items: names}).Run()
	return name, err
}

// promptProfile asks for every profile field, offering current values as defaults
func promptProfile(current config.Profile) (config.Profile, error) {
	fields := []struct {
		label string
		value *string
		mask  rune
	}{
		{"API Key", &current.APIKey, '*'},
		{"Reply model", &current.Model, 0},
		{"Judge model (empty uses agent.evaluator_model or the reply model)", &current.JudgeModel, 0},
		{"Base URL (empty for api.openai.com)", &current.BaseURL, 0},
	}

	for _, f := range fields {
		prompt := promptui.Prompt{Label: f.label, Default: *f.value, Mask: f.mask, AllowEdit: true}
		value, err := prompt.Run()
		if err != nil {
			return config.Profile{}, err
		}
		*f.value = value
	}
	if current.Model == "" {
		current.Model = config.DefaultModel
	}
	return current, nil
}

func printProfile(indent string, p config.Profile) {
	fmt.Printf("%sReply model: %s\n", indent, orDash(p.Model))
	fmt.Printf("%sJudge model: %s\n", indent, orDash(p.JudgeModel))
	fmt.Printf("%sBase URL:    %s\n", indent, orDash(p.BaseURL))
	key := "not set"
	if p.APIKey != "" {
		key = "set"
	}
	fmt.Printf("%sAPI key:     %s\n", indent, key)
}

func judgeFallback(cfg *config.Config, p config.Profile) string {
	if cfg.Agent.EvaluatorModel != "" {
		return cfg.Agent.EvaluatorModel + " (agent.evaluator_model)"
	}
	if p.Model == "" {
		return config.DefaultModel + " (reply model)"
	}
	return p.Model + " (reply model)"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("name is required")
	}
	return nil
}

func init() {
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(deleteProfileCmd)
	profileCmd.AddCommand(switchProfileCmd)
}
