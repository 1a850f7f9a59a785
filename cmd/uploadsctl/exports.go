package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"realm-uploads/internal/bootstrap"
	"realm-uploads/internal/shared/config"
)

func newExportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{Use: "export", Short: "Publish realm export tarballs"}
	cmd.AddCommand(newExportUploadCmd(cfg))
	return cmd
}

func newExportUploadCmd(cfg *config.Config) *cobra.Command {
	var (
		realmID    int64
		actingUser int64
		quiet      bool
	)
	cmd := &cobra.Command{
		Use:   "upload <tarball>",
		Short: "Upload an export tarball and record it for the realm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if realmID <= 0 {
				return errors.New("--realm is required")
			}
			return withApp(cmd.Context(), cfg, func(app *bootstrap.App) error {
				var lastMiB int64 = -1
				progress := func(sent int64) {
					if quiet {
						return
					}
					if mib := sent >> 20; mib != lastMiB {
						lastMiB = mib
						fmt.Fprintf(cmd.ErrOrStderr(), "\ruploaded %d MiB", mib)
					}
				}
				e, err := app.ExportsService.Publish(cmd.Context(), realmID, actingUser, args[0], progress)
				if !quiet {
					fmt.Fprintln(cmd.ErrOrStderr())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "export %d: %s (%d bytes)\n", e.ID, e.URL, e.Size)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&realmID, "realm", 0, "realm id")
	cmd.Flags().Int64Var(&actingUser, "acting-user", 0, "user id recorded as the exporter")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "do not print progress")
	return cmd
}
