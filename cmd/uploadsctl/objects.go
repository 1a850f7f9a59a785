package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"realm-uploads/internal/bootstrap"
	"realm-uploads/internal/shared/config"
	"realm-uploads/internal/shared/storage/object"
)

func newListCmd(cfg *config.Config) *cobra.Command {
	var (
		category       string
		includeDerived bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored objects of one category",
		Long: "List stored objects of one category: attachment, avatar, realm_icon, realm_logo, emoji or export.\n" +
			"Derived variants (thumbnails, resized renditions) are skipped unless --include-derived is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := object.ParseCategory(category)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), cfg, func(app *bootstrap.App) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "PATH\tSIZE\tMODIFIED")
				for info, err := range app.Backend.List(cmd.Context(), c, includeDerived) {
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
	cmd.Flags().StringVar(&category, "category", string(object.CategoryAttachment), "content category to list")
	cmd.Flags().BoolVar(&includeDerived, "include-derived", false, "also list thumbnails and resized renditions")
	return cmd
}
