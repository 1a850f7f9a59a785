package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"realm-uploads/internal/bootstrap"
	"realm-uploads/internal/shared/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "uploadsctl",
		Short:         "Inspect and maintain stored uploads",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfg.ObjectStoreType, "store", cfg.ObjectStoreType, "object store: local, s3 or minio")

	cmd.AddCommand(
		newAttachmentsCmd(cfg),
		newListCmd(cfg),
		newPublicURLCmd(cfg),
		newExportCmd(cfg),
		newOnboardingCmd(cfg),
	)
	return cmd
}

// withApp builds the application once per command and closes the database.
func withApp(ctx context.Context, cfg *config.Config, fn func(*bootstrap.App) error) error {
	app, err := bootstrap.BuildContext(ctx, *cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}
	return fn(app)
}

func newPublicURLCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "public-url <path>",
		Short: "Print the public URL of an object in the avatar bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(app *bootstrap.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), app.Backend.ResolvePublicURL(args[0]))
				return nil
			})
		},
	}
}
