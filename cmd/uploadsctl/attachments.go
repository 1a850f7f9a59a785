package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"realm-uploads/internal/bootstrap"
	"realm-uploads/internal/shared/config"
)

func newAttachmentsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{Use: "attachments", Short: "Manage message attachments in the uploads bucket"}
	cmd.AddCommand(
		newAttachmentsListCmd(cfg),
		newAttachmentsGetCmd(cfg),
		newAttachmentsSignCmd(cfg),
		newAttachmentsDeleteCmd(cfg),
	)
	return cmd
}

func newAttachmentsListCmd(cfg *config.Config) *cobra.Command {
	var includeThumbnails bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored attachments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(app *bootstrap.App) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "PATH\tSIZE\tMODIFIED")
				for info, err := range app.Backend.AllMessageAttachments(cmd.Context(), includeThumbnails) {
					if err != nil {
						w.Flush()
						return err
					}
					fmt.Fprintf(w, "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&includeThumbnails, "include-thumbnails", false, "also list generated thumbnails")
	return cmd
}

func newAttachmentsGetCmd(cfg *config.Config) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <path-id>",
		Short: "Download an attachment to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(app *bootstrap.App) error {
				var w io.Writer = cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				if err := app.Backend.SaveAttachmentContents(cmd.Context(), args[0], w); err != nil {
					if output != "" && output != "-" {
						os.Remove(output)
					}
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newAttachmentsSignCmd(cfg *config.Config) *cobra.Command {
	var download bool
	cmd := &cobra.Command{
		Use:   "sign <path-id>",
		Short: "Print a short-lived signed URL for an attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(app *bootstrap.App) error {
				signed, err := app.Backend.ResolveSignedURL(cmd.Context(), args[0], download)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), signed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&download, "download", false, "force Content-Disposition: attachment")
	return cmd
}

func newAttachmentsDeleteCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <path-id>...",
		Short: "Delete attachment objects; missing objects are ignored",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(app *bootstrap.App) error {
				if err := app.Backend.DeleteMessageAttachments(cmd.Context(), args); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "requested deletion of %d object(s)\n", len(args))
				return nil
			})
		},
	}
}
