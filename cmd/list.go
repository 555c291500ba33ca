package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ocsf-tools/ocsf-json-schema/internal/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List classes, objects, profiles, or schema versions",
}

var listClassesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List event classes in the loaded schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		names := schema.ClassNames()
		sort.Strings(names)

		table := ui.Table([]string{"Class", "UID", "Caption"})
		for _, name := range names {
			cls := schema.Classes[name]
			table.Append([]string{output.Cyan(name), fmt.Sprintf("%d", cls.UID), cls.Caption})
		}
		table.Render()
		return nil
	},
}

var listObjectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "List objects in the loaded schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		names := schema.ObjectNames()
		sort.Strings(names)

		table := ui.Table([]string{"Object", "Caption"})
		for _, name := range names {
			table.Append([]string{output.Cyan(name), schema.Objects[name].Caption})
		}
		table.Render()
		return nil
	},
}

var listProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List profiles referenced by the loaded schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		profiles := schema.ProfileNames()
		if len(profiles) == 0 {
			ui.Info("No profiles referenced by schema %s", schema.Version)
			return nil
		}
		for _, p := range profiles {
			fmt.Fprintln(ui.Out, p)
		}
		return nil
	},
}

var listVersionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List schema versions available on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := getRepository()
		if err != nil {
			return err
		}

		listing, err := r.ListVersions(cmd.Context())
		if err != nil {
			return err
		}

		cached := make(map[string]bool)
		if exports, err := r.CachedVersions(cmd.Context()); err == nil {
			for _, e := range exports {
				cached[e.Version] = true
			}
		}

		table := ui.Table([]string{"Version", "Default", "Cached"})
		for _, v := range listing.Versions {
			def := ""
			if v.Version == listing.Default.Version {
				def = output.Green("yes")
			}
			isCached := ""
			if cached[v.Version] {
				isCached = output.Green("yes")
			}
			table.Append([]string{output.Cyan(v.Version), def, isCached})
		}
		table.Render()
		return nil
	},
}

func init() {
	listCmd.AddCommand(listClassesCmd)
	listCmd.AddCommand(listObjectsCmd)
	listCmd.AddCommand(listProfilesCmd)
	listCmd.AddCommand(listVersionsCmd)
	rootCmd.AddCommand(listCmd)
}
