package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"notely/internal/notes"
	"notely/internal/scanner"
)

// minPrefix is the shortest id prefix accepted in place of a full id
const minPrefix = 4

type noteStore interface {
	List(ctx context.Context) ([]notes.Note, error)
}

func newListCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "l"},
		Short:   "List notes, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			list, err := s.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No notes found.")
				return nil
			}
			for _, n := range list {
				printNote(out, n)
			}
			fmt.Fprintf(out, "\n%d note(s)\n", len(list))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func newNewCmd(e *env) *cobra.Command {
	var content string
	cmd := &cobra.Command{
		Use:     "new [title]",
		Aliases: []string{"add", "a"},
		Short:   "Create a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				title = notes.DefaultTitle
			}

			s, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.Create(cmd.Context(), notes.Fields{
				Title:   notes.String(title),
				Content: notes.String(content),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\nID: %s\n", n.DisplayTitle(), n.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&content, "content", "c", "", "Note body (markdown)")
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := findNoteByPartialID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", n.DisplayTitle())
			fmt.Fprintf(out, "id: %s\nupdated: %s\n\n", n.ID, n.UpdatedAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintln(out, n.Content)
			return nil
		},
	}
}

func newEditCmd(e *env) *cobra.Command {
	var title, content string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title or content of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := notes.Patch{}
			if cmd.Flags().Changed("title") {
				p.Title = notes.String(title)
			}
			if cmd.Flags().Changed("content") {
				p.Content = notes.String(content)
			}
			if p.Title == nil && p.Content == nil {
				return errors.New("nothing to change, use --title or --content")
			}

			s, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := findNoteByPartialID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			p.ID = n.ID
			saved, err := s.Update(cmd.Context(), p.Apply(n))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated: %s\n", saved.DisplayTitle())
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "New body (markdown)")
	return cmd
}

func newRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete", "del"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := findNoteByPartialID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			if err := s.Delete(cmd.Context(), n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", n.DisplayTitle())
			return nil
		},
	}
}

func newExportCmd(e *env) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Render a note to a standalone HTML page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := findNoteByPartialID(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			page, err := notes.RenderDocument(n)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), page)
				return err
			}
			if err := os.WriteFile(output, []byte(page), 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported: %s -> %s\n", n.DisplayTitle(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.md|dir>...",
		Short: "Create notes from markdown files",
		Long: `Each file becomes one note. Directories are searched recursively for .md
files. The title comes from a "title" field in YAML frontmatter, else from the
file name; the rest of the file is the content.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			paths, err := scanner.Expand(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return errors.New("no markdown files found")
			}

			out := cmd.OutOrStdout()
			for _, path := range paths {
				fields, err := notes.ParseMarkdownFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				n, err := s.Create(cmd.Context(), fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Imported: %s (%s)\n", n.DisplayTitle(), shortID(n.ID))
			}
			return nil
		},
	}
}

func printNote(w io.Writer, n notes.Note) {
	fmt.Fprintf(w, "[%s] %s  %s\n", shortID(n.ID), n.UpdatedAt.Local().Format("2006-01-02 15:04"), n.DisplayTitle())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// findNoteByPartialID resolves a full id or a unique prefix of at least
// minPrefix characters.
func findNoteByPartialID(ctx context.Context, s noteStore, partialID string) (notes.Note, error) {
	list, err := s.List(ctx)
	if err != nil {
		return notes.Note{}, err
	}

	var matches []notes.Note
	for _, n := range list {
		if n.ID == partialID {
			return n, nil
		}
		if len(partialID) >= minPrefix && strings.HasPrefix(n.ID, partialID) {
			matches = append(matches, n)
		}
	}

	if len(matches) == 0 {
		return notes.Note{}, fmt.Errorf("no note found with ID: %s", partialID)
	}
	if len(matches) > 1 {
		return notes.Note{}, fmt.Errorf("multiple notes match ID '%s', please be more specific", partialID)
	}
	return matches[0], nil
}
