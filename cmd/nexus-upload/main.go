// Package main implements the nexus-upload command-line tool for uploading
// files to Nexus3 APT and RAW repositories.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mirrorctl/nexus-upload/internal/upload"
)

var (
	// Build information - can be set via build flags or by the build.sh script
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"

	// Command-line flags
	configPath   string
	logLevel     string
	repositories string
	pattern      string
	directory    string
	timeout      int
)

var rootCmd = &cobra.Command{
	Use:   "nexus-upload -r <repositories> -p <pattern>",
	Short: "Upload files to Nexus3 APT and RAW repositories",
	Long: `nexus-upload uploads files matching a glob pattern to one or more Nexus3
repositories using the components REST API.

If the pattern ends with ".deb" every matched file is uploaded as an APT
asset, otherwise as a RAW asset in the repository root.

The server and credentials are read from the environment:

  NEXUS_HOST_URL   base address of the Nexus3 server
  NEXUS_USER       user name
  NEXUS_TOKEN      password or user token

Usage:
  # Upload Debian packages to two apt repositories
  nexus-upload -r focal-dev,jammy-dev -p "*.deb" -d build/

  # Upload tarballs to a raw repository with a 5 minute timeout
  nexus-upload -r releases -p "dist/*.tar.gz" -t 300

  # Show what would be uploaded
  nexus-upload -r releases -p "dist/*" --dry-run`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runUpload,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information including build details",
	Run: func(cmd *cobra.Command, _ []string) {
		printVersion(cmd.OutOrStdout())
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file (if any) and the environment, and report
every problem found without uploading anything.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runValidate,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file path (TOML)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("verbose-errors", false, "show detailed error information including stack traces")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress all output except for errors")

	rootCmd.Flags().StringVarP(&repositories, "repositories", "r", "", "comma separated list of repositories to upload to")
	rootCmd.Flags().StringVarP(&pattern, "pattern", "p", "", "file name pattern to search")
	rootCmd.Flags().StringVarP(&directory, "directory", "d", "", "directory to search for files in")
	rootCmd.Flags().IntVarP(&timeout, "timeout", "t", 100, "timeout in seconds for a single file upload")
	rootCmd.Flags().Bool("dry-run", false, "list the files and checksums without uploading")
	rootCmd.Flags().Bool("no-progress", false, "do not show upload progress bars")

	_ = rootCmd.MarkFlagRequired("repositories")
	_ = rootCmd.MarkFlagRequired("pattern")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "nexus-upload %s\n", version)
	fmt.Fprintf(w, "commit: %s\n", commit)
	fmt.Fprintf(w, "built: %s\n", buildDate)
}

// formatError returns a human-friendly error message, optionally with stack trace
func formatError(err error, verbose bool) string {
	if verbose {
		return fmt.Sprintf("%+v", err) // Full details with stack trace
	}

	msg := err.Error()
	if hints := errors.FlattenHints(err); hints != "" {
		msg += " (" + strings.ReplaceAll(hints, "\n", "; ") + ")"
	}
	return msg
}

// formatUndecodedError builds a user-friendly error message for undecoded TOML keys
func formatUndecodedError(undecoded []toml.Key) string {
	var keys []string
	for _, key := range undecoded {
		keys = append(keys, key.String())
	}

	var errorMsg strings.Builder
	errorMsg.WriteString("configuration contains unknown keys: ")
	errorMsg.WriteString(strings.Join(keys, ", "))
	errorMsg.WriteString("\nKnown sections are [nexus], [log] and [tls]; key names are case-sensitive.")
	return errorMsg.String()
}

// loadConfig reads the optional configuration file, applies environment
// overrides and installs the logger.
func loadConfig(cmd *cobra.Command) (*upload.Config, error) {
	config := upload.NewConfig()

	if configPath != "" {
		meta, err := toml.DecodeFile(configPath, config)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Mark(errors.Newf("configuration file not found: %s", configPath), upload.ErrConfig)
			}
			return nil, errors.Mark(errors.Wrapf(err, "decode %s", configPath), upload.ErrConfig)
		}
		// Check for undecoded keys which might indicate typos
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, errors.Mark(errors.New(formatUndecodedError(undecoded)), upload.ErrConfig)
		}
	}

	if err := config.ApplyEnvironmentVariables(); err != nil {
		return nil, errors.Mark(err, upload.ErrConfig)
	}

	if cmd.Flags().Changed("timeout") {
		config.Timeout = timeout
	}

	if logLevel != "" {
		config.Log.Level = logLevel
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		config.Log.Level = "error"
	}
	if err := config.Log.Apply(); err != nil {
		return nil, errors.Mark(err, upload.ErrConfig)
	}

	return config, nil
}

func runUpload(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	repos, err := upload.ParseRepositories(repositories)
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	opts := &upload.Options{
		Repositories: repos,
		Pattern:      pattern,
		Dir:          directory,
		DryRun:       dryRun,
		UserAgent:    "nexus-upload/" + version,
		Stdout:       cmd.OutOrStdout(),
	}
	if !quiet && !noProgress {
		opts.Progress = cmd.ErrOrStderr()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return upload.Run(ctx, config, opts)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	validationErrors := config.Problems()
	if config.TLS.Validate() == nil {
		// Problems leaves the certificate files alone
		if _, err := config.TLS.BuildTLSConfig(); err != nil {
			validationErrors = append(validationErrors, errors.Wrap(err, "tls"))
		}
	}

	if len(validationErrors) > 0 {
		for _, err := range validationErrors {
			slog.Error(formatError(err, false))
		}
		return errors.Mark(errors.Newf("found %d configuration problem(s)", len(validationErrors)), upload.ErrConfig)
	}

	slog.Info("the configuration passes validation checks")
	return nil
}

// execute runs the command line args and returns the process exit status.
func execute(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	if cmd == nil {
		cmd = rootCmd
	}
	verboseErrors, _ := cmd.Flags().GetBool("verbose-errors")
	slog.Error("nexus-upload failed", "error", formatError(err, verboseErrors))
	if !verboseErrors && !errors.Is(err, upload.ErrConfig) {
		slog.Info("run with --verbose-errors for detailed stack traces")
	}
	return 1
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:]))
}
