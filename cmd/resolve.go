package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

var (
	resolveEmbed  bool
	resolveOutput string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <uri>",
	Short: "Generate the JSON Schema identified by a schema URI",
	Long: `Generate the JSON Schema document identified by an OCSF schema URI,
for example:

  https://schema.ocsf.io/schema/1.3.0/classes/authentication
  https://schema.ocsf.io/schema/1.3.0/objects/user?profiles=network

The URI's version must match the loaded schema export.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		var doc *ocsfschema.Document
		if resolveEmbed {
			doc, err = ocsfschema.NewEmbedded(schema).SchemaFromURI(args[0])
		} else {
			doc, err = ocsfschema.NewGenerator(schema).SchemaFromURI(args[0])
		}
		if err != nil {
			return err
		}
		return writeDocument(doc, resolveOutput, "json")
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveEmbed, "embed", true, "Inline referenced objects under $defs")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "", "Write the document to a file instead of stdout")
	rootCmd.AddCommand(resolveCmd)
}

// marshalDocument renders a generated document as JSON or YAML.
func marshalDocument(doc *ocsfschema.Document, format string) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema document: %w", err)
	}

	switch format {
	case "", "json":
		return append(data, '\n'), nil
	case "yaml":
		// Round-trip through a map so the document's json tags drive the
		// YAML field names.
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("marshal schema document: %w", err)
		}
		return yaml.Marshal(m)
	default:
		return nil, fmt.Errorf("unknown format %q (use: json, yaml)", format)
	}
}

// writeDocument marshals a generated document and writes it to stdout or to a file.
func writeDocument(doc *ocsfschema.Document, path, format string) error {
	data, err := marshalDocument(doc, format)
	if err != nil {
		return err
	}

	if path == "" {
		_, err = ui.Out.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write schema document: %w", err)
	}
	ui.Success("Wrote %s", path)
	return nil
}
