package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/warpframe/internal/store"
	"github.com/andresmejia3/warpframe/internal/utils"
	"github.com/spf13/cobra"
)

// Options holds shared configuration for the warp and warp-video commands
type Options struct {
	InputPath     string
	FlowPath      string
	OutputPath    string
	Padding       float64
	PaddingMode   string
	Sampler       string
	NumEngines    int
	WorkerTimeout string
	ConfigPath    string
}

// storeAnnotation marks how a command depends on the run ledger.
const (
	storeAnnotation = "store"
	storeRequired   = "required"
	storeOptional   = "optional"
)

var (
	// DB is the run ledger shared by subcommands. It is nil when no
	// database is configured for commands that can run without one.
	DB *store.Store
	// Log is the structured debug logger, enabled by --verbose.
	Log = utils.NoopLogger()

	dbURL   string
	verbose bool
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "warpframe",
	Short:   "Optical-flow frame warping with configurable edge padding",
	Version: Version, // This enables the --version flag
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		Log = utils.NewLogger(verbose)

		need := cmd.Annotations[storeAnnotation]
		if need == "" {
			return nil
		}

		url, explicit := resolveDBURL()
		if need == storeOptional && !explicit {
			// No database configured: runs are simply not recorded.
			return nil
		}

		// Use the command's context (which will be cancellable) for the connection
		var err error
		DB, err = store.New(cmd.Context(), url)
		if err != nil {
			if need == storeRequired {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			fmt.Fprintf(os.Stderr, "⚠️  Run ledger unavailable, continuing without it: %v\n", err)
			DB = nil
		}
		return nil
	},
}

// resolveDBURL returns the connection string and whether it was configured
// explicitly (flag or environment) rather than falling back to the local default.
func resolveDBURL() (string, bool) {
	if dbURL != "" {
		return dbURL, true
	}
	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		name := os.Getenv("POSTGRES_DB")
		port := os.Getenv("POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name), true
	}
	// Fallback to local default if no env vars are present
	return "postgres://localhost:5432/warpframe", false
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := executeContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// executeContext runs the command tree and always releases the ledger,
// including when a command fails.
func executeContext(ctx context.Context) error {
	defer closeStore()
	return rootCmd.ExecuteContext(ctx)
}

// closeStore releases the ledger connection whether or not the command
// succeeded. It is safe to call more than once.
func closeStore() {
	if DB == nil {
		return
	}
	// Use Background here because the main context might be cancelled already (due to Ctrl+C)
	// and we still need to send the "Close" command to the DB.
	DB.Close(context.Background())
	DB = nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string for the run ledger (default: $POSTGRES_HOST or postgres://localhost:5432/warpframe)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
