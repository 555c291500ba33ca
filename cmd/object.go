package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

var (
	objectProfiles []string
	objectEmbed    bool
	objectOutput   string
	objectFormat   string
)

var objectCmd = &cobra.Command{
	Use:   "object <name>",
	Short: "Generate the JSON Schema for an object",
	Long: `Generate the JSON Schema document for one OCSF object.

By default referenced objects are inlined under $defs so the document is
self-contained. Use --embed=false to keep absolute object references.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		doc, err := generateObject(schema, args[0], objectProfiles, objectEmbed)
		if err != nil {
			return err
		}
		return writeDocument(doc, objectOutput, objectFormat)
	},
}

func init() {
	objectCmd.Flags().StringSliceVarP(&objectProfiles, "profiles", "p", nil, "Profiles to include (repeatable or comma-separated)")
	objectCmd.Flags().BoolVar(&objectEmbed, "embed", true, "Inline referenced objects under $defs")
	objectCmd.Flags().StringVarP(&objectOutput, "output", "o", "", "Write the document to a file instead of stdout")
	objectCmd.Flags().StringVar(&objectFormat, "format", "json", "Output format: json, yaml")
	rootCmd.AddCommand(objectCmd)
}

func generateObject(schema *ocsfschema.Schema, name string, profiles []string, embed bool) (*ocsfschema.Document, error) {
	if embed {
		return ocsfschema.NewEmbedded(schema).ObjectSchema(name, profiles)
	}
	return ocsfschema.NewGenerator(schema).ObjectSchema(name, profiles)
}
