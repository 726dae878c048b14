package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"pcmflow.dev/internal/config"
	"pcmflow.dev/internal/resample"
	"pcmflow.dev/internal/tracking"
)

const Version = "0.4.0"

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	configManager    *config.Manager
	backendFactory   resample.BackendFactory
	terminalDetector TerminalDetector
	historyDB        *sql.DB // Optional conversion history database
}

// NewCLI creates a new CLI instance
func NewCLI() *CLI {
	slog.Debug("creating new CLI instance")

	rootCmd := &cobra.Command{
		Use:   "pcmflow",
		Short: "PCM sample rate and channel converter",
		Long:  "pcmflow decodes audio files and converts them to a target sample rate and channel layout.",
	}

	rootCmd.AddCommand(newConvertCommand())
	rootCmd.AddCommand(newBackendsCommand())
	rootCmd.AddCommand(newStatsCommand())

	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if version, _ := cmd.Flags().GetBool("version"); version {
			cmd.Printf("pcmflow version %s\nPCM sample rate and channel converter\n", Version)
			return nil
		}
		return cmd.Help()
	}

	return &CLI{
		rootCmd:          rootCmd,
		configManager:    nil, // Lazy initialization - only create when needed
		backendFactory:   nil, // Lazy initialization - only create when needed
		terminalDetector: nil, // Lazy initialization - only create when needed
		historyDB:        nil, // Lazy initialization - only create when needed
	}
}

type cliContextKey struct{}

// contextWithCLI stores CLI instance in context for command handlers
func contextWithCLI(cli *CLI) context.Context {
	return context.WithValue(context.Background(), cliContextKey{}, cli)
}

// cliFromContext extracts CLI instance from context
func cliFromContext(ctx context.Context) *CLI {
	if cli, ok := ctx.Value(cliContextKey{}).(*CLI); ok {
		return cli
	}
	return nil
}

// Run executes the CLI with the given arguments and I/O streams
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.Debug("CLI run started", "args", args)

	// Check for version flag before any system initialization
	if len(args) > 1 && (args[1] == "--version" || args[1] == "-v") {
		fmt.Fprintf(stdout, "pcmflow version %s\nPCM sample rate and channel converter\n", Version)
		return 0
	}

	c.initializeSystems()

	defer func() {
		if c.historyDB != nil {
			if err := c.historyDB.Close(); err != nil {
				slog.Error("error closing history database", "error", err)
			}
		}
	}()

	c.rootCmd.SetArgs(args[1:]) // Skip program name
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)

	// Store CLI instance for access in command handlers
	c.rootCmd.SetContext(contextWithCLI(c))

	if err := c.rootCmd.Execute(); err != nil {
		slog.Error("cobra execution failed", "error", err)
		return 1
	}

	return 0
}

// initializeSystems lazily initializes CLI components when actually needed
func (c *CLI) initializeSystems() {
	if c.configManager == nil {
		c.configManager = config.NewManager()
	}
	if c.backendFactory == nil {
		c.backendFactory = resample.NewBackendFactory()
	}
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}
	// historyDB is initialized in initializeHistory when a command needs it
}

// loadAndValidateConfig loads configuration from flags and files, applies
// overrides, and validates
func loadAndValidateConfig(cmd *cobra.Command, cli *CLI) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	logLevelFlag, _ := cmd.Flags().GetString("log-level")

	var cfg *config.Config
	if configFile != "" {
		loaded, err := cli.configManager.LoadFromFile(configFile)
		if err != nil {
			cmd.PrintErrf("Error loading config: %v\n", err)
			slog.Error("config load failed", "file", configFile, "error", err)
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		cli.configManager.ApplyEnvOverrides(loaded)
		cfg = loaded
	} else {
		cfg = cli.configManager.Load()
	}

	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
		slog.Debug("log level override applied", "value", logLevelFlag)
	}

	if err := cli.configManager.Validate(cfg); err != nil {
		cmd.PrintErrf("Error: invalid configuration: %v\n", err)
		slog.Error("config validation failed", "error", err)
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupLogging configures slog with independent stderr and file levels.
// The stderr handler follows the configured level while the file handler,
// when enabled, always records at debug for later inspection.
func (c *CLI) setupLogging(cfg *config.Config, stderrWriter io.Writer) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelWarn
	}

	var fileWriter io.Writer
	if cfg.FileLogging != nil && cfg.FileLogging.Enabled {
		logFilePath := c.configManager.LogFilePath(cfg)

		logDir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			slog.Error("failed to create log directory", "path", logDir, "error", err)
			// Continue without file logging rather than failing
		} else {
			fileWriter = &lumberjack.Logger{
				Filename:   logFilePath,
				MaxSize:    cfg.FileLogging.MaxSizeMB,
				MaxBackups: cfg.FileLogging.MaxBackups,
				MaxAge:     cfg.FileLogging.MaxAgeDays,
				Compress:   cfg.FileLogging.Compress,
			}
			slog.Debug("file logging enabled", "path", logFilePath)
		}
	}

	slog.SetDefault(slog.New(NewLogSplitter(stderrWriter, level, fileWriter)))

	slog.Debug("logging setup completed",
		"level", level.String(),
		"file_enabled", fileWriter != nil)
}

// initializeHistory opens the conversion history database, degrading
// gracefully when it cannot be opened
func (c *CLI) initializeHistory() {
	if c.historyDB != nil {
		return // Already initialized
	}

	dbPath, err := tracking.GetDatabasePath()
	if err != nil {
		slog.Error("failed to resolve history database path, continuing without history", "error", err)
		return
	}

	db, err := tracking.NewDatabase(dbPath)
	if err != nil {
		slog.Error("failed to open history database, continuing without history",
			"path", dbPath, "error", err)
		return
	}

	c.historyDB = db
	slog.Info("history database initialized", "path", dbPath)
}

// parsePositiveInt parses a positive integer flag value
func parsePositiveInt(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value '%s': %w", name, value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return n, nil
}
