package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewImportIngredientsCommand creates the import-ingredients command.
func NewImportIngredientsCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import-ingredients",
		Short: "Load ingredients from a name,unit CSV file",
		Long: `Load ingredients from a CSV file with one "name,unit" pair per row and
no header. Pairs already in the catalog are left alone, so the command is
safe to run again on the same file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportIngredients(rootOpts, file, cmd)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "data/ingredients.csv", "CSV file to import")

	return cmd
}

func runImportIngredients(opts *RootOptions, path string, cmd *cobra.Command) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	catalog, db, err := openCatalog(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := catalog.ImportIngredients(cmd.Context(), f)
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Result(res, fmt.Sprintf("imported %s: %d created, %d already present", path, res.Created, res.Existing))
}
