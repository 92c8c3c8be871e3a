package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/foodgram/internal/service"
)

// NewCreateTagCommand creates the create-tag command.
func NewCreateTagCommand(rootOpts *RootOptions) *cobra.Command {
	var in service.TagInput

	cmd := &cobra.Command{
		Use:           "create-tag",
		Short:         "Add a recipe tag",
		Example:       `  foodgram create-tag --name Breakfast --color "#E26C2D" --slug breakfast`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateTag(rootOpts, in, cmd)
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Color, "color", "", "colour as #RRGGBB")
	cmd.Flags().StringVar(&in.Slug, "slug", "", "URL slug, unique")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("color")
	_ = cmd.MarkFlagRequired("slug")

	return cmd
}

func runCreateTag(opts *RootOptions, in service.TagInput, cmd *cobra.Command) error {
	catalog, db, err := openCatalog(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer db.Close()

	tag, err := catalog.CreateTag(cmd.Context(), in)
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Result(tag, fmt.Sprintf("created tag %s (%s, %s) id=%s", tag.Slug, tag.Name, tag.Color, tag.ID))
}
