package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"movie-cinema/internal/model"
	"movie-cinema/internal/render"
	"movie-cinema/internal/service"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd.Context(), func(a *app) error {
				return printBoard(cmd, a)
			})
		},
	}
}

type itemFlags struct {
	category string
	title    string
	year     string
	rating   string
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Category id or label (love, action, horror, animation, heist, adventure)")
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Movie title")
	cmd.Flags().StringVarP(&f.year, "year", "y", "", "Release year")
	cmd.Flags().StringVarP(&f.rating, "rating", "r", "", "Rating, free text")
}

// apply copies the flags the user actually set onto form.
func (f *itemFlags) apply(cmd *cobra.Command, form *service.Form) error {
	if cmd.Flags().Changed("category") {
		cat, ok := model.ParseCategory(f.category)
		if !ok {
			return fmt.Errorf("unknown category %q", f.category)
		}
		form.Category = cat
	}
	if cmd.Flags().Changed("title") {
		form.Title = f.title
	}
	if cmd.Flags().Changed("year") {
		form.Year = f.year
	}
	if cmd.Flags().Changed("rating") {
		form.Rating = f.rating
	}
	return nil
}

func newAddCmd() *cobra.Command {
	var flags itemFlags

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Append a movie to a category",
		Example: `  moviecinema add --category heist --title "Heat" --year 1995 --rating 8.3`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd.Context(), func(a *app) error {
				session := service.NewEditSession(a.store)
				form := session.StartAdd()
				if err := flags.apply(cmd, &form); err != nil {
					return err
				}
				if err := commit(cmd, session, form); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s.\n", strings.TrimSpace(form.Title), form.Category.Label())
				return nil
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func newEditCmd() *cobra.Command {
	var flags itemFlags

	cmd := &cobra.Command{
		Use:   "edit <category> <slot>",
		Short: "Change a movie; unset flags keep their current value",
		Example: `  moviecinema edit love 2 --rating 9
  moviecinema edit love 2 --category adventure`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := model.ParsePosition(args[0], args[1])
			if err != nil {
				return err
			}
			return withCatalog(cmd.Context(), func(a *app) error {
				if _, ok := a.store.Item(pos); !ok {
					return fmt.Errorf("slot %d of %s is empty", pos.Index+1, pos.Category.Label())
				}
				session := service.NewEditSession(a.store)
				form := session.StartEdit(pos)
				if err := flags.apply(cmd, &form); err != nil {
					return err
				}
				if err := commit(cmd, session, form); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %q in %s.\n", strings.TrimSpace(form.Title), form.Category.Label())
				return nil
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func commit(cmd *cobra.Command, session *service.EditSession, form service.Form) error {
	err := session.Commit(cmd.Context(), form)
	if service.IsValidationError(err) {
		return errors.New("please provide a title")
	}
	return err
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category> <slot>",
		Short: "Remove a movie; later movies move up one slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := model.ParsePosition(args[0], args[1])
			if err != nil {
				return err
			}
			return withCatalog(cmd.Context(), func(a *app) error {
				item, ok := a.store.Item(pos)
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Slot %d of %s is already empty.\n", pos.Index+1, pos.Category.Label())
					return nil
				}
				if err := a.store.DeleteItem(cmd.Context(), pos.Category, pos.Index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", item.Title)
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole catalog to a file",
		Example: `  moviecinema export
  moviecinema export --format yaml --out -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q, use json or yaml", format)
			}
			if format == "yaml" && !cmd.Flags().Changed("out") {
				out = strings.TrimSuffix(service.ExportFileName, ".json") + ".yaml"
			}
			return withCatalog(cmd.Context(), func(a *app) error {
				data, err := encodeSnapshot(a.store, format)
				if err != nil {
					return err
				}
				if out == "-" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", service.ExportFileName, `Output file, "-" for stdout`)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or yaml")

	return cmd
}

func encodeSnapshot(store *service.CatalogStore, format string) ([]byte, error) {
	if format == "json" {
		return store.ExportSnapshot()
	}
	data, err := yaml.Marshal(store.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return data, nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: `Replace the catalog with an exported JSON file ("-" reads stdin)`,
		Long:  importHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			return withCatalog(cmd.Context(), func(a *app) error {
				if err := a.store.ImportSnapshot(cmd.Context(), data); err != nil {
					if service.IsParseError(err) {
						return fmt.Errorf("invalid JSON: %w", err)
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Imported")
				return nil
			})
		},
	}
}

const importHelp = `Replaces the whole catalog with an exported JSON file ("-" reads stdin).

The document must be an object keyed by category id (love, action, horror,
animation, heist, adventure). Missing or null categories become empty.
Keys that are not one of these categories are dropped and will not appear
in later exports. A file that does not parse leaves the catalog unchanged.`

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return data, nil
}

func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Empty every category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset removes every movie, pass --yes to confirm")
			}
			return withCatalog(cmd.Context(), func(a *app) error {
				if err := a.store.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog reset.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")

	return cmd
}

func printBoard(cmd *cobra.Command, a *app) error {
	_, err := fmt.Fprint(cmd.OutOrStdout(), render.Text(service.BuildView(a.store.Snapshot()), nil))
	return err
}
