package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ocsf-tools/ocsf-json-schema/internal/output"
	"github.com/ocsf-tools/ocsf-json-schema/internal/validate"
)

var (
	validateClass    string
	validateUID      int
	validateProfiles []string
	validateExplain  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a JSON event against a class schema",
	Long: `Validate a JSON event against the schema of an OCSF event class.

The event is read from the given file, or from stdin when no file is
given. Select the class with --class or --class-uid; the UID resolves to a
class name through the loaded schema.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateClass == "" && validateUID == 0 {
			return fmt.Errorf("either --class or --class-uid is required")
		}

		event, err := readEvent(args)
		if err != nil {
			return err
		}

		schema, err := loadSchema(cmd)
		if err != nil {
			return err
		}

		validator := validate.New(schema)
		var result *validate.Result
		if validateClass != "" {
			result, err = validator.ClassEvent(validateClass, validateProfiles, event)
		} else {
			result, err = validator.ClassEventByUID(validateUID, validateProfiles, event)
		}
		if err != nil {
			return err
		}

		if result.Valid {
			ui.Success("Event is valid")
			return nil
		}

		ui.Error("Event has %d violation(s)", len(result.Violations))
		for _, v := range result.Violations {
			loc := v.Location
			if loc == "" {
				loc = "/"
			}
			fmt.Fprintf(ui.Out, "  %s  %s\n", output.Red(loc), v.Message)
		}

		if validateExplain {
			if err := explainViolations(cmd, result, event); err != nil {
				ui.Warning("Could not explain violations: %v", err)
			}
		}

		return fmt.Errorf("validation failed")
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateClass, "class", "c", "", "Class name to validate against")
	validateCmd.Flags().IntVarP(&validateUID, "class-uid", "u", 0, "Class UID to validate against")
	validateCmd.Flags().StringSliceVarP(&validateProfiles, "profiles", "p", nil, "Profiles to include")
	validateCmd.Flags().BoolVar(&validateExplain, "explain", false, "Explain violations with the configured LLM")
	rootCmd.AddCommand(validateCmd)
}

func readEvent(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read event file: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read event from stdin: %w", err)
	}
	return data, nil
}

func explainViolations(cmd *cobra.Command, result *validate.Result, event []byte) error {
	client := newLLMClient()
	if client == nil {
		return fmt.Errorf("no Anthropic API key configured (set anthropic.api_key or ANTHROPIC_API_KEY)")
	}

	className := validateClass
	if className == "" {
		className = fmt.Sprintf("uid %d", validateUID)
	}

	explanation, err := client.ExplainViolations(cmd.Context(), className, result, event)
	if err != nil {
		return err
	}

	fmt.Fprintln(ui.Out)
	fmt.Fprintln(ui.Out, explanation)
	return nil
}
