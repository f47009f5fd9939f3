package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	noterepo "secondbrain/agent/internal/infra/repository/note"
)

// newNotesCmd groups local note inspection commands. They work directly
// on the data directory, no running server needed.
func newNotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Inspect and manage stored notes",
	}
	cmd.AddCommand(newNotesListCmd())
	cmd.AddCommand(newNotesShowCmd())
	cmd.AddCommand(newNotesRmCmd())
	return cmd
}

func openRepo() (*noterepo.FileRepository, error) {
	return noterepo.NewFileRepository(afero.NewOsFs(), globalConfig.DataDir)
}

func newNotesListCmd() *cobra.Command {
	var query string
	var tags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			notes, err := repo.Search(cmd.Context(), query, tags)
			if err != nil {
				return err
			}
			if len(notes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no notes found")
				return nil
			}
			for _, n := range notes {
				line := fmt.Sprintf("%s  %s", n.ID, n.Title)
				if len(n.Tags) > 0 {
					line += "  [" + strings.Join(n.Tags, ", ") + "]"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "substring match on title or content")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "require all of these tags")
	return cmd
}

func newNotesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			n, err := repo.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if n == nil {
				return fmt.Errorf("note %s not found", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", n.ID)
			fmt.Fprintf(out, "Title:   %s\n", n.Title)
			if len(n.Tags) > 0 {
				fmt.Fprintf(out, "Tags:    %s\n", strings.Join(n.Tags, ", "))
			}
			fmt.Fprintf(out, "Created: %s\n", n.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Updated: %s\n", n.UpdatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "\n%s\n", n.Content)
			return nil
		},
	}
}

func newNotesRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo()
			if err != nil {
				return err
			}
			removed, err := repo.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("note %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
