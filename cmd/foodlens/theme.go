package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/foodlens/internal/app"
	"github.com/hyperengineering/foodlens/internal/types"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the light/dark theme preference",
}

var themeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current theme",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTheme(cmd, func(ctx context.Context, a *app.App) (types.Theme, error) {
			return a.Theme.Get(), nil
		})
	},
}

var themeSetCmd = &cobra.Command{
	Use:       "set <light|dark>",
	Short:     "Set the theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(types.ThemeLight), string(types.ThemeDark)},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTheme(cmd, func(ctx context.Context, a *app.App) (types.Theme, error) {
			if err := a.Theme.Set(ctx, types.Theme(args[0])); err != nil {
				return "", err
			}
			return a.Theme.Get(), nil
		})
	},
}

var themeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch between light and dark",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTheme(cmd, func(ctx context.Context, a *app.App) (types.Theme, error) {
			return a.Theme.Toggle(ctx)
		})
	},
}

func init() {
	themeCmd.AddCommand(themeGetCmd)
	themeCmd.AddCommand(themeSetCmd)
	themeCmd.AddCommand(themeToggleCmd)
	rootCmd.AddCommand(themeCmd)
}

func withTheme(cmd *cobra.Command, fn func(context.Context, *app.App) (types.Theme, error)) error {
	ctx := context.Background()
	a, _, err := openApp(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Teardown()

	theme, err := fn(ctx, a)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), types.ThemeResponse{Theme: theme})
	}
	fmt.Fprintln(cmd.OutOrStdout(), theme)
	return nil
}
