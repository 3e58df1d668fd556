package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mirage/cmd/mirage/ui"
	"mirage/internal/config"
	"mirage/internal/logging"
	"mirage/internal/session"
)

var version = "0.3.0"

var (
	// Global flags
	verbose    bool
	configPath string
	stateDir   string

	// Logger for the non-interactive subcommands
	logger *zap.Logger
)

// rootCmd launches the terminal window.
var rootCmd = &cobra.Command{
	Use:   "mirage",
	Short: "mirage - a simulated terminal backed by a language-model oracle",
	Long: `mirage opens a terminal window whose shell does not exist: every command
you type is answered by a language-model oracle, and a local mirror of the
simulated filesystem keeps the session coherent across commands.

Paste your API credential at the first prompt to begin. The credential is
held in memory only, never logged and never written to disk.

Run without arguments to open the interactive window.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive window has its own display; keep zap for the rest.
		if cmd.CalledAs() == "mirage" {
			return nil
		}
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWindow()
	},
}

// versionCmd prints the build version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the mirage version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mirage %s\n", version)
	},
}

// configCmd prints the effective configuration after file and env merging.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(resolveConfigPath())
		if err != nil {
			return err
		}
		logger.Info("configuration loaded",
			zap.String("provider", cfg.Oracle.Provider),
			zap.String("model", cfg.Oracle.Model))
		fmt.Printf("provider:          %s\n", cfg.Oracle.Provider)
		fmt.Printf("model:             %s\n", cfg.Oracle.Model)
		fmt.Printf("base_url:          %s\n", orDefault(cfg.Oracle.BaseURL, "(provider default)"))
		fmt.Printf("timeout:           %s\n", cfg.Oracle.Timeout)
		fmt.Printf("transcript_window: %d\n", cfg.Session.TranscriptWindow)
		fmt.Printf("debug_mode:        %v\n", cfg.Logging.DebugMode)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: <state-dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "State directory for logs and config (default: ~/.mirage)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runWindow wires config, logging, the session controller, and the
// bubbletea window together and runs until the user exits.
func runWindow() error {
	dir := resolveStateDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return err
	}
	timeout, err := cfg.OracleTimeout()
	if err != nil {
		return err
	}

	if err := logging.Initialize(dir, logging.Options{
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.CloseAll()
	logging.Boot("mirage %s starting, provider=%s model=%s", version, cfg.Oracle.Provider, cfg.Oracle.Model)

	controller := session.NewController(session.Options{
		Provider:            cfg.Oracle.Provider,
		Model:               cfg.Oracle.Model,
		BaseURL:             cfg.Oracle.BaseURL,
		Timeout:             timeout,
		TranscriptWindow:    cfg.Session.TranscriptWindow,
		CredentialMinLength: cfg.Session.CredentialMinLength,
	})
	defer controller.Close()

	// Hot reload only touches logging verbosity; the oracle and session
	// options of a live session stay fixed until restart.
	watcher, err := config.NewWatcher(resolveConfigPath(), func(next *config.Config) {
		logging.Reconfigure(logging.Options{
			DebugMode:  next.Logging.DebugMode || verbose,
			Level:      next.Logging.Level,
			Categories: next.Logging.Categories,
		})
		logging.Boot("configuration reloaded")
	})
	if err != nil {
		logging.Boot("config watcher disabled: %v", err)
	} else if err := watcher.Start(); err != nil {
		logging.Boot("config watcher disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	model := ui.New(ui.Config{
		WindowTitle:  cfg.UI.WindowTitle,
		PromptSymbol: cfg.UI.PromptSymbol,
		Username:     cfg.UI.Username,
		Hostname:     cfg.UI.Hostname,
	}, controller)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()
	return err
}

func resolveStateDir() string {
	if stateDir != "" {
		return stateDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mirage"
	}
	return filepath.Join(home, ".mirage")
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(resolveStateDir(), "config.yaml")
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
