// Package cmd provides the command-line interface for HelpMapper.
// It handles command parsing, configuration loading, and runs the
// support-content analysis pipeline.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hmizuno/helpmapper/internal/classify"
	"github.com/hmizuno/helpmapper/internal/config"
	"github.com/hmizuno/helpmapper/internal/fetch"
	"github.com/hmizuno/helpmapper/internal/logging"
	"github.com/hmizuno/helpmapper/internal/session"
	"github.com/hmizuno/helpmapper/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "helpmapper [URL]",
	Short: "Discover and map a website's support content",
	Long: `HelpMapper analyzes a website's customer-support surface.

Given a starting page it discovers help, FAQ, policy and contact pages
through navigation links, sitemaps and robots.txt, crawls them politely
in small batches, extracts their structured content, and aggregates it
into per-category summaries plus actionable cancellation, refund,
billing and contact information.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalysis,
}

// domainsCmd lists domains with a cached analysis result.
var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List domains with a cached analysis",
	RunE:  runDomains,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Configuration file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./helpmapper.yml)")

	// Configuration management flags
	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	// Crawl shape flags
	rootCmd.Flags().IntP("batch-size", "b", 3, "Pages fetched concurrently per batch")
	rootCmd.Flags().Duration("batch-delay", 1*time.Second, "Pause between batches")
	rootCmd.Flags().IntP("max-pages", "l", 50, "Stop after N fetched pages (0=unlimited)")
	rootCmd.Flags().Int("max-depth", 1, "Crawl generations beyond the discovered links")

	// HTTP flags
	rootCmd.Flags().DurationP("timeout", "t", 30*time.Second, "HTTP request timeout")
	rootCmd.Flags().Duration("request-delay", 200*time.Millisecond, "Per-domain delay between requests")
	rootCmd.Flags().StringP("user-agent", "u", "HelpMapper/1.0", "HTTP User-Agent header")

	// Extraction flags
	rootCmd.Flags().Int("min-paragraph", 20, "Minimum paragraph length kept during extraction")

	// Result cache flags
	rootCmd.Flags().StringP("database", "d", "./helpmapper.db", "Path to SQLite cache file")
	rootCmd.Flags().Duration("cache-ttl", 24*time.Hour, "Freshness window for cached results")
	rootCmd.Flags().Bool("no-cache", false, "Ignore cached results and re-analyze")

	// Logging flags
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.Flags().String("log-file", "", "Write JSON logs to this file in addition to stderr")

	// Output flags
	rootCmd.Flags().StringP("output", "o", "", "Write the JSON result to this file (default stdout)")

	// Bind flags to viper
	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"batch_size", "batch-size"},
		{"batch_delay", "batch-delay"},
		{"max_pages", "max-pages"},
		{"max_depth", "max-depth"},
		{"request_timeout", "timeout"},
		{"request_delay", "request-delay"},
		{"user_agent", "user-agent"},
		{"min_paragraph_len", "min-paragraph"},
		{"database_path", "database"},
		{"cache_ttl", "cache-ttl"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			// Log the error but continue - non-critical for operation
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}

	rootCmd.AddCommand(domainsCmd)
	domainsCmd.Flags().StringP("database", "d", "./helpmapper.db", "Path to SQLite cache file")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("helpmapper")
	}

	viper.AutomaticEnv() // read in environment variables that match
	viper.SetEnvPrefix("HM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func generateUserAgent() string {
	if version != "" && version != "dev" {
		return fmt.Sprintf("HelpMapper/%s", version)
	}
	return "HelpMapper/dev"
}

func showCurrentConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	// Validate configuration before showing it
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current HelpMapper Configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Configuration file search paths: ./helpmapper.yml\n")
	fmt.Printf("# Environment variables prefix: HM_\n\n")

	fmt.Print(string(yamlData))

	fmt.Printf("\n# Configuration source priority:\n")
	fmt.Printf("# 1. Command-line arguments (highest priority)\n")
	fmt.Printf("# 2. Environment variables (HM_ prefix)\n")
	fmt.Printf("# 3. Configuration file (helpmapper.yml)\n")
	fmt.Printf("# 4. Default values (lowest priority)\n")

	return nil
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Update User-Agent with dynamic version if not explicitly set
	if !cmd.Flags().Changed("user-agent") && cfg.UserAgent == "HelpMapper/1.0" {
		cfg.UserAgent = generateUserAgent()
	}

	// Handle --show-config: display current configuration and exit
	if showConfig {
		return showCurrentConfig(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if len(args) == 0 {
		return fmt.Errorf("no URL provided\nUsage: %s [URL]", os.Args[0])
	}
	startURL := args[0]
	if !strings.Contains(startURL, "://") {
		startURL = "https://" + startURL
	}
	origin, err := classify.Origin(startURL)
	if err != nil {
		return fmt.Errorf("invalid start URL: %w", err)
	}

	logLevel, _ := cmd.Flags().GetString("log-level")
	logFile, _ := cmd.Flags().GetString("log-file")
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(logLevel)
	logCfg.FilePath = logFile
	if err := logging.SetDefault(*logCfg); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	// Create database directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open result cache: %w", err)
	}
	defer func() { _ = store.Close() }()

	noCache, _ := cmd.Flags().GetBool("no-cache")
	if !noCache {
		cached, err := store.GetFresh(origin, cfg.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to read result cache: %w", err)
		}
		if cached != nil {
			fmt.Fprintf(os.Stderr, "Using cached analysis of %s from %s\n",
				cached.Domain, humanize.Time(cached.Stats.Timestamp))
			return writeResult(cmd, cached)
		}
	}

	limiter := fetch.NewRateLimiter(cfg.RequestDelay)
	client := fetch.NewClient(cfg.UserAgent, cfg.RequestTimeout, limiter)
	defer client.Close()

	sess := session.New(cfg, client)
	result, err := sess.Run(cmd.Context(), session.StartPage{URL: startURL})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := store.SaveResult(result); err != nil {
		// Cache failures degrade to a warning, the result is still delivered
		fmt.Fprintf(os.Stderr, "Warning: failed to cache result: %v\n", err)
	}

	printSummary(result)
	return writeResult(cmd, result)
}

func printSummary(result *session.Result) {
	fmt.Fprintf(os.Stderr, "Analyzed %s pages on %s (%s failed, %s batches) in %v\n",
		humanize.Comma(int64(result.Stats.PagesAnalyzed)),
		result.Domain,
		humanize.Comma(int64(result.Stats.PagesFailed)),
		humanize.Comma(int64(result.Stats.Batches)),
		result.Stats.Duration.Round(time.Millisecond))

	for _, category := range classify.Categories() {
		if n := result.Stats.ContentTypes[string(category)]; n > 0 {
			fmt.Fprintf(os.Stderr, "  %s: %d page(s)\n", category, n)
		}
	}
	if result.Aborted {
		fmt.Fprintf(os.Stderr, "Analysis was interrupted, result is partial\n")
	}
}

func writeResult(cmd *cobra.Command, result *session.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Result written to %s (%s)\n", outPath, humanize.Bytes(uint64(len(data))))
	return nil
}

func runDomains(cmd *cobra.Command, _ []string) error {
	dbPath, _ := cmd.Flags().GetString("database")

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open result cache: %w", err)
	}
	defer func() { _ = store.Close() }()

	entries, err := store.ListDomains()
	if err != nil {
		return fmt.Errorf("failed to list domains: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No cached analyses.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s\t%d pages\t%s\n", e.Domain, e.PagesAnalyzed, humanize.Time(e.CreatedAt))
	}
	return nil
}
