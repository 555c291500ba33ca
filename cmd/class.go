package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

var (
	classProfiles []string
	classEmbed    bool
	classOutput   string
	classFormat   string
)

var classCmd = &cobra.Command{
	Use:   "class <name>",
	Short: "Generate the JSON Schema for an event class",
	Long: `Generate the JSON Schema document for one OCSF event class.

By default referenced objects are inlined under $defs so the document is
self-contained. Use --embed=false to keep absolute object references.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		doc, err := generateClass(schema, args[0], classProfiles, classEmbed)
		if err != nil {
			return err
		}
		return writeDocument(doc, classOutput, classFormat)
	},
}

func init() {
	classCmd.Flags().StringSliceVarP(&classProfiles, "profiles", "p", nil, "Profiles to include (repeatable or comma-separated)")
	classCmd.Flags().BoolVar(&classEmbed, "embed", true, "Inline referenced objects under $defs")
	classCmd.Flags().StringVarP(&classOutput, "output", "o", "", "Write the document to a file instead of stdout")
	classCmd.Flags().StringVar(&classFormat, "format", "json", "Output format: json, yaml")
	rootCmd.AddCommand(classCmd)
}

func generateClass(schema *ocsfschema.Schema, name string, profiles []string, embed bool) (*ocsfschema.Document, error) {
	if embed {
		return ocsfschema.NewEmbedded(schema).ClassSchema(name, profiles)
	}
	return ocsfschema.NewGenerator(schema).ClassSchema(name, profiles)
}
