package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Token Counting
	tokenizerType  string
	tokenizerModel string
	tokenizerFile  string

	// Read
	rawMode         bool
	copyToClipboard bool
	pdfOutputFile   string
	interactiveMode bool

	// JSON
	toonDelimiterName string
	keyFolding        string
	lengthMarkers     bool

	// Estimate
	estimateText string

	// Batch
	noRecursive  bool
	reportFormat string

	// List
	listRecursive bool
	listPattern   string

	verbose bool
	cfgFile string
)

// version is the application version, set via ldflags.
var version string = "dev"

var rootCmd = &cobra.Command{
	Use:   "skinny-jeans",
	Short: "skinny-jeans serves files to LLMs in token-optimized form.",
	Long: `skinny-jeans reads files, web pages and repositories and rewrites them to cost
fewer tokens: JSON becomes TOON, Markdown is minified, code loses its comments.
It can also estimate savings for whole trees and serve its tools over MCP.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var readCmd = &cobra.Command{
	Use:   "read [PATH|URL]",
	Short: "Print a file or web page in token-optimized form",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if interactiveMode {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			picked, err := pickFileInteractively(root, viper.GetBool("hidden"))
			if errors.Is(err, errSelectionAborted) {
				fmt.Fprintln(os.Stderr, "Interactive selection aborted.")
				return nil
			}
			if err != nil {
				return err
			}
			path = picked
		} else {
			if len(args) != 1 {
				return errors.New("read requires a path or URL (or --interactive)")
			}
			path = args[0]
		}

		result, err := readFileTool(ReadFileArgs{
			Path:      path,
			MaxTokens: resolveMaxTokens(cmd),
			Raw:       rawMode,
		})
		if err != nil {
			return err
		}

		if pdfOutputFile != "" {
			category := CategoryMarkdown
			if !isWebURL(path) {
				category = classifyFile(path)
			}
			return generatePDF(result, path, category, pdfOutputFile)
		}
		return deliverOutput(cmd, result)
	},
}

var jsonCmd = &cobra.Command{
	Use:   "json PATH",
	Short: "Print a JSON or JSONL file encoded as TOON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := readJSONTool(ReadJSONArgs{
			Path:          args[0],
			Delimiter:     toonDelimiterName,
			KeyFolding:    keyFolding,
			LengthMarkers: lengthMarkers,
			MaxTokens:     resolveMaxTokens(cmd),
		})
		if err != nil {
			return err
		}
		return deliverOutput(cmd, result)
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate [PATH]",
	Short: "Estimate the token count of a file or text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		estimate := EstimateArgs{Text: estimateText}
		if len(args) == 1 {
			estimate.Path = args[0]
		}
		result, err := estimateTokensTool(estimate)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch PATHS...",
	Short: "Report estimated token savings across files, directories and Git repositories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batch := batchDefaults()
		batch.Paths = args
		batch.Recursive = !noRecursive

		report, err := batchEstimateTool(batch)
		if err != nil {
			return err
		}
		out, err := formatReport(report, reportFormat)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [DIR]",
	Short: "Compact indented directory listing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		out, err := listFilesTool(ListArgs{Path: dir, Recursive: listRecursive, Pattern: listPattern})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "Show the file extensions of each category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		if _, err := fmt.Fprintln(writer, "CATEGORY\tCOMMENTS\tEXTENSIONS"); err != nil {
			return err
		}
		for _, row := range languageRows() {
			if _, err := fmt.Fprintf(writer, "%s\t%s\t%s\n", row.Category, row.Comments, strings.Join(row.Extensions, ", ")); err != nil {
				return err
			}
		}
		return writer.Flush()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the skinny-jeans tools over MCP (stdio)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return NewMCPServer(version, logger, batchDefaults()).Start()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "skinny-jeans %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig, initTokenizer)

	// --- Flag Definitions & Viper Binding ---
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/skinny-jeans/config.toml)")
	rootCmd.PersistentFlags().StringVar(&tokenizerType, "tokenizer", "estimate", "Tokenizer to use: estimate, tiktoken or huggingface")
	viper.BindPFlag("tokenizer", rootCmd.PersistentFlags().Lookup("tokenizer"))
	rootCmd.PersistentFlags().StringVar(&tokenizerModel, "model", "", "Model name for tokenizer (e.g., gpt-4o, gpt2)")
	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	rootCmd.PersistentFlags().StringVar(&tokenizerFile, "tokenizer-file", "", "Path to local tokenizer file")
	viper.BindPFlag("tokenizer_file", rootCmd.PersistentFlags().Lookup("tokenizer-file"))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print progress information to stderr")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	rootCmd.PersistentFlags().BoolP("hidden", "H", false, "Include hidden files and directories")
	viper.BindPFlag("hidden", rootCmd.PersistentFlags().Lookup("hidden"))

	// Read
	readCmd.Flags().BoolVar(&rawMode, "raw", false, "Return the content without optimization")
	readCmd.Flags().Int("max-tokens", 0, "Maximum tokens to return (0 for no limit)")
	readCmd.Flags().BoolVarP(&copyToClipboard, "clipboard", "c", false, "Copy output to clipboard")
	readCmd.Flags().StringVar(&pdfOutputFile, "pdf", "", "Save output as PDF")
	readCmd.Flags().BoolVar(&interactiveMode, "interactive", false, "Pick the file with a fuzzy finder")

	// JSON
	jsonCmd.Flags().StringVar(&toonDelimiterName, "delimiter", defaultToonDelimiter, "Delimiter for tabular rows: comma, tab or pipe")
	jsonCmd.Flags().StringVar(&keyFolding, "key-folding", defaultToonKeyFolding, "Collapse single-key wrappers into dotted paths: off or safe")
	jsonCmd.Flags().BoolVar(&lengthMarkers, "length-markers", false, "Prefix array lengths with #")
	jsonCmd.Flags().Int("max-tokens", 0, "Maximum tokens to return (0 for no limit)")
	jsonCmd.Flags().BoolVarP(&copyToClipboard, "clipboard", "c", false, "Copy output to clipboard")

	// Estimate
	estimateCmd.Flags().StringVar(&estimateText, "text", "", "Estimate this text instead of a file")

	// Batch
	batchCmd.Flags().BoolVar(&noRecursive, "no-recursive", false, "Only look at the top level of directories")
	batchCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "Report format: text, json or yaml")
	batchCmd.Flags().IntP("threads", "t", 0, "Number of threads for token counting (0 for auto)")
	viper.BindPFlag("threads", batchCmd.Flags().Lookup("threads"))
	batchCmd.Flags().Bool("no-ignore", false, "Don't respect .gitignore files")
	viper.BindPFlag("no_ignore", batchCmd.Flags().Lookup("no-ignore"))
	batchCmd.Flags().Int64P("max-size", "s", 0, "Maximum file size in bytes (0 for no limit)")
	viper.BindPFlag("max_size", batchCmd.Flags().Lookup("max-size"))
	batchCmd.Flags().StringP("exclude", "e", "", "Patterns to exclude (comma-separated)")
	viper.BindPFlag("exclude", batchCmd.Flags().Lookup("exclude"))

	// List
	listCmd.Flags().BoolVarP(&listRecursive, "recursive", "r", false, "List files recursively")
	listCmd.Flags().StringVarP(&listPattern, "pattern", "p", "", "Filter by glob pattern (e.g. '*.ts')")

	rootCmd.AddCommand(readCmd, jsonCmd, estimateCmd, batchCmd, listCmd, languagesCmd, serveCmd, versionCmd)

	viper.SetDefault("tokenizer", "estimate")
	viper.SetDefault("max_tokens", 0)
	viper.SetDefault("threads", 0)
	viper.SetDefault("hidden", false)
	viper.SetDefault("no_ignore", false)
	viper.SetDefault("max_size", 10485760) // 10MB
	viper.SetDefault("verbose", false)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".config", "skinny-jeans"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	// A .env in the working directory may also carry SKINNY_JEANS_* settings
	_ = godotenv.Load()
	viper.SetEnvPrefix("SKINNY_JEANS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match SKINNY_JEANS_*

	err := viper.ReadInConfig()
	verbose = viper.GetBool("verbose")
	if err == nil {
		logf("Using config file: %s\n", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		// Config file was found but another error was produced
		fmt.Fprintf(os.Stderr, "Warning: error reading config file: %s\n", err)
	}
}

// initTokenizer installs the configured tokenizer. On failure the offline
// estimator stays active.
func initTokenizer() {
	tokenizerType = viper.GetString("tokenizer")
	tokenizerModel = viper.GetString("model")
	tokenizerFile = viper.GetString("tokenizer_file")

	tk, err := getTokenizer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error initializing tokenizer, using the estimator: %v\n", err)
		return
	}
	setTokenizer(tk)
}

// batchDefaults collects the walk settings shared by the batch command and the MCP server.
func batchDefaults() BatchArgs {
	return BatchArgs{
		Recursive: true,
		Threads:   viper.GetInt("threads"),
		Hidden:    viper.GetBool("hidden"),
		NoIgnore:  viper.GetBool("no_ignore"),
		MaxSize:   viper.GetInt64("max_size"),
		Excludes:  parsePatterns(viper.GetString("exclude")),
	}
}

// resolveMaxTokens prefers an explicit --max-tokens over the configured max_tokens.
func resolveMaxTokens(cmd *cobra.Command) int {
	if cmd.Flags().Changed("max-tokens") {
		n, _ := cmd.Flags().GetInt("max-tokens")
		return n
	}
	return viper.GetInt("max_tokens")
}

// deliverOutput prints the result, or copies it to the clipboard with --clipboard.
func deliverOutput(cmd *cobra.Command, result string) error {
	if copyToClipboard {
		if err := clipboard.WriteAll(result); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error writing to clipboard: %v\n", err)
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		}
		fmt.Fprintln(os.Stderr, "Output copied to clipboard.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}

// logf prints progress to stderr when --verbose is set.
func logf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
