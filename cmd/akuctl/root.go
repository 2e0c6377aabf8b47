package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	akumuli "github.com/expenses/akumuli-go"
	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/engine/local"
	"github.com/expenses/akumuli-go/format"
)

// Version is the akuctl release.
const Version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "akuctl",
	Short: "manage Akumuli time-series databases",
	Long: fmt.Sprintf(`akuctl (v%s)

Create Akumuli database instances, resolve series names to param ids and
write samples from the command line.`, Version),
	SilenceUsage:      true,
	PersistentPreRunE: bindFlags,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of akuctl",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("akuctl v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("path", "./akumuli_db", "database directory")
	flags.String("suffix", akumuli.DefaultSuffix, "instance name inside the database directory")
	flags.String("config", "", "YAML file with num_volumes, allocate, page_size and suffix")
	flags.String("engine", "local", "storage engine ("+strings.Join(engineNames(), ", ")+")")
	flags.String("compression", "zstd", "page compression of the local engine (none, zstd, s2, lz4)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig loads env files and maps AKU_* variables onto flags.
func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("aku")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func bindFlags(cmd *cobra.Command, _ []string) error {
	return viper.BindPFlags(cmd.Flags())
}

// engineFactories holds the engines compiled into this binary.
var engineFactories = map[string]func() (engine.Engine, error){
	"local": func() (engine.Engine, error) {
		c, err := format.ParseCompression(viper.GetString("compression"))
		if err != nil {
			return nil, err
		}

		return local.New(local.WithCompression(c))
	},
}

func engineNames() []string {
	names := make([]string, 0, len(engineFactories))
	for name := range engineFactories {
		names = append(names, name)
	}

	return names
}

func newLogger() (*slog.Logger, error) {
	var level slog.Level
	switch name := strings.ToLower(viper.GetString("log-level")); name {
	case "trace":
		level = akumuli.LevelTrace
	default:
		if err := level.UnmarshalText([]byte(name)); err != nil {
			return nil, fmt.Errorf("invalid log level %q", name)
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level, ReplaceAttr: akumuli.ReplaceLevel})

	return slog.New(handler).With("component", "akumuli"), nil
}

// clientOptions builds the options shared by every command.
func clientOptions() ([]akumuli.Option, error) {
	name := viper.GetString("engine")
	factory, ok := engineFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown engine %q, available: %s", name, strings.Join(engineNames(), ", "))
	}
	eng, err := factory()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger()
	if err != nil {
		return nil, err
	}

	return []akumuli.Option{akumuli.WithEngine(eng), akumuli.WithLogger(logger)}, nil
}

// dbConfig reads --config if given, then applies explicitly set flags.
func dbConfig(cmd *cobra.Command) (akumuli.DBConfig, error) {
	cfg := akumuli.DefaultDBConfig()
	if path := viper.GetString("config"); path != "" {
		loaded, err := akumuli.LoadDBConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if changed(cmd, "suffix") {
		cfg.Suffix = viper.GetString("suffix")
	}
	if changed(cmd, "volumes") {
		cfg.NumVolumes = viper.GetInt32("volumes")
	}
	if changed(cmd, "page-size") {
		cfg.PageSize = viper.GetUint64("page-size")
	}
	if changed(cmd, "allocate") {
		cfg.Allocate = viper.GetBool("allocate")
	}

	return cfg, cfg.Validate()
}

// changed reports whether key was set on the command line or in the
// environment.
func changed(cmd *cobra.Command, key string) bool {
	if f := cmd.Flags().Lookup(key); f != nil && f.Changed {
		return true
	}
	_, ok := os.LookupEnv("AKU_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_")))

	return ok
}
