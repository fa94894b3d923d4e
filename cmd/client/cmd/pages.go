package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/qrchalets/chalets/internal/models"
	"github.com/qrchalets/chalets/internal/service"
)

var (
	pageChalet  string
	pageTitle   string
	pageSlug    string
	pageContent string
	pageTags    []string
	pageActive  bool
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Manage chalet pages",
	Long: `List, create, update and delete the pages shown behind a chalet's QR codes.

Content is a JSON document, given inline or as @path to a file.

Examples:
  chalets-admin pages list --chalet 64f1
  chalets-admin pages create --chalet 64f1 --title "Wifi" --content @wifi.json
  chalets-admin pages update 64f2 --active=false
  chalets-admin pages delete 64f2`,
}

var pagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pages, optionally for one chalet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		loadData(cmd)

		pages := app.data.Pages()
		if pageChalet != "" {
			pages = app.data.PagesForChalet(pageChalet)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCHALET\tSLUG\tTITLE\tACTIVE\tVIEWS")
		for _, p := range pages {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\n", p.ID, p.Chalet, p.Slug, p.Title, p.IsActive, p.Views)
		}
		return w.Flush()
	},
}

var pagesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a page; the slug defaults to the title",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		in := models.PageInput{
			Title:  pageTitle,
			Slug:   pageSlug,
			Tags:   pageTags,
			Chalet: pageChalet,
		}
		if cmd.Flags().Changed("active") {
			in.IsActive = &pageActive
		}
		content, err := readContent(pageContent)
		if err != nil {
			return err
		}
		in.Content = content

		p, err := app.chalets.CreatePage(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created page %s /%s\n", p.ID, p.Slug)
		return nil
	},
}

var pagesUpdateCmd = &cobra.Command{
	Use:   "update <page-id>",
	Short: "Update a page; unset flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		loadData(cmd)

		current, ok := app.data.Page(args[0])
		if !ok {
			return fmt.Errorf("page %s not found", args[0])
		}
		in := models.PageInput{
			Title:   current.Title,
			Content: current.Content,
			Slug:    current.Slug,
			Tags:    current.Tags,
			Chalet:  current.Chalet.String(),
		}
		active := current.IsActive
		in.IsActive = &active

		flags := cmd.Flags()
		if flags.Changed("title") {
			in.Title = pageTitle
		}
		if flags.Changed("slug") {
			in.Slug = service.Slugify(pageSlug)
		}
		if flags.Changed("tags") {
			in.Tags = pageTags
		}
		if flags.Changed("chalet") {
			in.Chalet = pageChalet
		}
		if flags.Changed("active") {
			in.IsActive = &pageActive
		}
		if flags.Changed("content") {
			content, err := readContent(pageContent)
			if err != nil {
				return err
			}
			in.Content = content
		}

		p, err := app.chalets.UpdatePage(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated page %s /%s\n", p.ID, p.Slug)
		return nil
	},
}

var pagesDeleteCmd = &cobra.Command{
	Use:   "delete <page-id>",
	Short: "Delete a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		if err := app.chalets.DeletePage(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted page %s\n", args[0])
		return nil
	},
}

// readContent accepts inline JSON or @path.
func readContent(arg string) (json.RawMessage, error) {
	if arg == "" {
		return nil, nil
	}
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read content file: %w", err)
		}
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("content is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func init() {
	for _, c := range []*cobra.Command{pagesCreateCmd, pagesUpdateCmd} {
		c.Flags().StringVarP(&pageChalet, "chalet", "c", "", "owning chalet id")
		c.Flags().StringVarP(&pageTitle, "title", "t", "", "page title")
		c.Flags().StringVar(&pageSlug, "slug", "", "URL slug")
		c.Flags().StringVar(&pageContent, "content", "", "JSON content or @file")
		c.Flags().StringSliceVar(&pageTags, "tags", nil, "comma separated tags")
		c.Flags().BoolVar(&pageActive, "active", true, "whether the page is published")
	}
	pagesListCmd.Flags().StringVarP(&pageChalet, "chalet", "c", "", "only pages of this chalet")
	pagesListCmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "refetch from the backend")

	rootCmd.AddCommand(pagesCmd)
	pagesCmd.AddCommand(pagesListCmd)
	pagesCmd.AddCommand(pagesCreateCmd)
	pagesCmd.AddCommand(pagesUpdateCmd)
	pagesCmd.AddCommand(pagesDeleteCmd)
}
