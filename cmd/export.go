package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

var (
	exportDir   string
	exportEmbed bool
)

var exportCmd = &cobra.Command{
	Use:   "export --dir <dir>",
	Short: "Write schemas for every class and object to a directory",
	Long: `Generate the JSON Schema for every event class and object in the
loaded schema export and write them under <dir>/classes/ and
<dir>/objects/. Each entity is generated with its declared profile list
applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		classDir := filepath.Join(exportDir, "classes")
		objectDir := filepath.Join(exportDir, "objects")
		for _, dir := range []string{classDir, objectDir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}

		written := 0

		classes := schema.ClassNames()
		sort.Strings(classes)
		for _, name := range classes {
			doc, err := generateClass(schema, name, schema.Classes[name].Profiles, exportEmbed)
			if err != nil {
				return fmt.Errorf("class %s: %w", name, err)
			}
			if err := writeExportFile(classDir, name, doc); err != nil {
				return err
			}
			written++
		}

		objects := schema.ObjectNames()
		sort.Strings(objects)
		for _, name := range objects {
			doc, err := generateObject(schema, name, schema.Objects[name].Profiles, exportEmbed)
			if err != nil {
				return fmt.Errorf("object %s: %w", name, err)
			}
			if err := writeExportFile(objectDir, name, doc); err != nil {
				return err
			}
			written++
		}

		ui.Success("Wrote %d schema documents to %s", written, exportDir)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Output directory (required)")
	exportCmd.Flags().BoolVar(&exportEmbed, "embed", true, "Inline referenced objects under $defs")
	_ = exportCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(exportCmd)
}

// writeExportFile writes one document as <dir>/<name>.json. Extension
// entity names contain slashes, which become underscores.
func writeExportFile(dir, name string, doc *ocsfschema.Document) error {
	data, err := marshalDocument(doc, "json")
	if err != nil {
		return err
	}
	filename := strings.ReplaceAll(name, "/", "_") + ".json"
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	ui.VerboseLog("Wrote %s", path)
	return nil
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
