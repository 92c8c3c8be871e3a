// Package cli implements the foodgram maintenance commands. They talk to the
// same SQLite database as the server, through the same services.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	sqliteRepo "github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
)

// DefaultDBPath matches the server's default database.path.
const DefaultDBPath = "data/foodgram.db"

// dbPathEnvVar is the server's variable for database.path, honoured here so
// both binaries find the same file.
const dbPathEnvVar = "FOODGRAM_DATABASE_PATH"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath  string
	Format  string // "json" | "text"
	Verbose bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the foodgram CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "foodgram",
		Short: "foodgram maintenance commands",
		Long:  "Seed and maintain the foodgram catalog: ingredients and tags.",
		// main prints the error once and picks the exit code.
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.DBPath == "" {
				opts.DBPath = os.Getenv(dbPathEnvVar)
			}
			if opts.DBPath == "" {
				opts.DBPath = DefaultDBPath
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (default $"+dbPathEnvVar+" or "+DefaultDBPath+")")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log service activity to stderr")

	cmd.AddCommand(NewImportIngredientsCommand(opts))
	cmd.AddCommand(NewCreateTagCommand(opts))

	return cmd
}

// openCatalog opens the database and returns a catalog service over it.
// The caller closes the returned DB.
func openCatalog(opts *RootOptions, stderr io.Writer) (*service.CatalogService, *sqliteRepo.DB, error) {
	db, err := sqliteRepo.New(opts.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database %s: %w", opts.DBPath, err)
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	return service.NewCatalogService(db, db, logger), db, nil
}
