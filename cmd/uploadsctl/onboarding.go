package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"realm-uploads/internal/bootstrap"
	"realm-uploads/internal/shared/config"
)

func newOnboardingCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{Use: "onboarding", Short: "Maintain onboarding state"}

	var from, to int64
	copyCmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy dismissed onboarding steps from one user to another",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from <= 0 || to <= 0 {
				return errors.New("--from and --to are required")
			}
			return withApp(cmd.Context(), cfg, func(app *bootstrap.App) error {
				if err := app.OnboardingService.CopySteps(cmd.Context(), from, to); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "copied onboarding steps from %d to %d\n", from, to)
				return nil
			})
		},
	}
	copyCmd.Flags().Int64Var(&from, "from", 0, "source user id")
	copyCmd.Flags().Int64Var(&to, "to", 0, "target user id")

	cmd.AddCommand(copyCmd)
	return cmd
}
