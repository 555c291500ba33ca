package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ocsf-tools/ocsf-json-schema/internal/output"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached schema exports",
	Long: `Fetch, list, and remove OCSF schema exports in the local cache.

Commands that need a schema load it from the cache first and only hit the
schema server on a miss, so pre-fetching with 'cache fetch' makes later
runs work offline.`,
}

var cacheFetchCmd = &cobra.Command{
	Use:   "fetch [version]",
	Short: "Download a schema export into the cache",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getRepository()
		if err != nil {
			return err
		}

		version := ""
		if len(args) == 1 {
			version = args[0]
		}

		schema, err := r.Load(cmd.Context(), version)
		if err != nil {
			return err
		}

		ui.Success("Cached schema export %s (%d classes, %d objects)",
			schema.Version, len(schema.Classes), len(schema.Objects))
		return nil
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached schema exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getRepository()
		if err != nil {
			return err
		}

		exports, err := r.CachedVersions(cmd.Context())
		if err != nil {
			return err
		}

		if len(exports) == 0 {
			ui.Info("No cached exports. Use 'ocsf-schema cache fetch [version]' to download one.")
			return nil
		}

		table := ui.Table([]string{"Version", "Size", "Fetched"})
		for _, e := range exports {
			table.Append([]string{
				output.Cyan(e.Version),
				formatSize(e.SizeBytes),
				e.FetchedAt.Format("2006-01-02 15:04"),
			})
		}
		table.Render()
		return nil
	},
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "rm <version>",
	Short: "Remove a cached schema export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getRepository()
		if err != nil {
			return err
		}

		if err := r.DeleteCached(cmd.Context(), args[0]); err != nil {
			return err
		}
		ui.Success("Removed cached export %s", args[0])
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheFetchCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheRemoveCmd)
	rootCmd.AddCommand(cacheCmd)
}
