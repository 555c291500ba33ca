package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

var describeProfiles []string

var describeCmd = &cobra.Command{
	Use:   "describe (class|object) <name>",
	Short: "Summarize a schema in plain language using an LLM",
	Long: `Generate the JSON Schema for a class or object and ask the configured
Anthropic model for a plain-language summary of it.

Requires an API key in anthropic.api_key or ANTHROPIC_API_KEY.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, name := args[0], args[1]
		if kind != "class" && kind != "object" {
			return fmt.Errorf("unknown kind %q (use: class, object)", kind)
		}

		client := newLLMClient()
		if client == nil {
			return fmt.Errorf("no Anthropic API key configured (set anthropic.api_key or ANTHROPIC_API_KEY)")
		}

		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		var doc *ocsfschema.Document
		if kind == "class" {
			doc, err = ocsfschema.NewEmbedded(schema).ClassSchema(name, describeProfiles)
		} else {
			doc, err = ocsfschema.NewEmbedded(schema).ObjectSchema(name, describeProfiles)
		}
		if err != nil {
			return err
		}

		ui.VerboseLog("Asking %s to describe %s %s", viper.GetString("anthropic.model"), kind, name)
		summary, err := client.DescribeSchema(cmd.Context(), kind, name, doc)
		if err != nil {
			return err
		}

		fmt.Fprintln(ui.Out, summary)
		return nil
	},
}

func init() {
	describeCmd.Flags().StringSliceVarP(&describeProfiles, "profiles", "p", nil, "Profiles to include")
	rootCmd.AddCommand(describeCmd)
}
