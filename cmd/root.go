package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ocsf-tools/ocsf-json-schema/internal/output"
	"github.com/ocsf-tools/ocsf-json-schema/internal/repository"
	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui   *output.UI
	repo *repository.Repository

	verbose bool

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ocsf-schema",
	Short: "Generate JSON Schemas from OCSF schema exports",
	Long: `ocsf-schema turns OCSF (Open Cybersecurity Schema Framework) schema
exports into JSON Schema draft 2020-12 documents, one per event class or
object. Exports are fetched from the OCSF schema server and cached locally,
or read from a file with --schema-file.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/ocsf-schema/config.yaml)")
	rootCmd.PersistentFlags().String("schema-file", "", "Read the schema export from a local file instead of the network")
	rootCmd.PersistentFlags().String("schema-version", "", "OCSF schema version to load (default: current release)")
	_ = viper.BindPFlag("schema_file", rootCmd.PersistentFlags().Lookup("schema-file"))
	_ = viper.BindPFlag("version", rootCmd.PersistentFlags().Lookup("schema-version"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "ocsf-schema")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("OCSF_SCHEMA")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "ocsf-schema")

	viper.SetDefault("state_dir", defaultConfigDir)
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "exports.db"))
	viper.SetDefault("base_url", repository.DefaultBaseURL)
	viper.SetDefault("version", "")
	viper.SetDefault("schema_file", "")
	viper.SetDefault("http_timeout", "60s")
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	// The repository (and its cache db) is opened lazily, only when a
	// command actually needs a schema export.
}

// getRepository returns the shared repository, initializing it on first call.
func getRepository() (*repository.Repository, error) {
	if repo != nil {
		return repo, nil
	}

	cache, err := repository.NewCache(viper.GetString("db_path"))
	if err != nil {
		return nil, fmt.Errorf("open export cache: %w", err)
	}
	if err := cache.Migrate(rootCmd.Context()); err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("migrate export cache: %w", err)
	}

	repo = repository.New(
		repository.WithCache(cache),
		repository.WithBaseURL(viper.GetString("base_url")),
		repository.WithHTTPClient(&http.Client{Timeout: viper.GetDuration("http_timeout")}),
	)
	return repo, nil
}

// loadSchema loads the schema export selected by --schema-file or --schema-version.
func loadSchema(cmd *cobra.Command) (*ocsfschema.Schema, error) {
	if path := viper.GetString("schema_file"); path != "" {
		ui.VerboseLog("Loading schema export from %s", path)
		return repository.LoadFile(path)
	}

	r, err := getRepository()
	if err != nil {
		return nil, err
	}

	version := viper.GetString("version")
	if version == "" {
		ui.VerboseLog("Loading current release schema export")
	} else {
		ui.VerboseLog("Loading schema export %s", version)
	}
	return r.Load(cmd.Context(), version)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(ui.Out, "ocsf-schema %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
	},
}
