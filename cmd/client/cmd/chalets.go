package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qrchalets/chalets/internal/models"
)

var (
	chaletName        string
	chaletDescription string
	refresh           bool
)

var chaletsCmd = &cobra.Command{
	Use:   "chalets",
	Short: "Manage chalets",
	Long: `List, create, update and delete chalets.

Examples:
  chalets-admin chalets list
  chalets-admin chalets create --name "Le Sapin" --description "Au pied des pistes"
  chalets-admin chalets update 64f1 --name "Le Grand Sapin"
  chalets-admin chalets delete 64f1`,
}

var chaletsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List chalets with their page counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		loadData(cmd)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPAGES")
		for _, c := range app.data.Chalets() {
			fmt.Fprintf(w, "%s\t%s\t%d\n", c.ID, c.Name, app.data.PageCount(c.ID))
		}
		return w.Flush()
	},
}

var chaletsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a chalet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		c, err := app.chalets.CreateChalet(cmd.Context(), models.ChaletInput{
			Name:        chaletName,
			Description: chaletDescription,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created chalet %s %s\n", c.ID, c.Name)
		return nil
	},
}

var chaletsUpdateCmd = &cobra.Command{
	Use:   "update <chalet-id>",
	Short: "Update a chalet; unset flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		loadData(cmd)

		in := models.ChaletInput{Name: chaletName, Description: chaletDescription}
		if current, ok := app.data.Chalet(args[0]); ok {
			if !cmd.Flags().Changed("name") {
				in.Name = current.Name
			}
			if !cmd.Flags().Changed("description") {
				in.Description = current.Description
			}
		}
		c, err := app.chalets.UpdateChalet(cmd.Context(), args[0], in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated chalet %s %s\n", c.ID, c.Name)
		return nil
	},
}

var chaletsDeleteCmd = &cobra.Command{
	Use:   "delete <chalet-id>",
	Short: "Delete a chalet and, in the local cache, its pages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		if err := app.chalets.DeleteChalet(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted chalet %s\n", args[0])
		return nil
	},
}

// loadData fills the cache. A failed fetch leaves it empty and is only
// reported.
func loadData(cmd *cobra.Command) {
	var err error
	if refresh {
		err = app.data.Fetch(cmd.Context())
	} else {
		err = app.data.Initialize(cmd.Context())
	}
	if err != nil {
		app.log.Warn("failed to load admin data", zap.Error(err))
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
}

func init() {
	for _, c := range []*cobra.Command{chaletsCreateCmd, chaletsUpdateCmd} {
		c.Flags().StringVarP(&chaletName, "name", "n", "", "chalet name")
		c.Flags().StringVarP(&chaletDescription, "description", "d", "", "chalet description")
	}
	chaletsListCmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "refetch from the backend")

	rootCmd.AddCommand(chaletsCmd)
	chaletsCmd.AddCommand(chaletsListCmd)
	chaletsCmd.AddCommand(chaletsCreateCmd)
	chaletsCmd.AddCommand(chaletsUpdateCmd)
	chaletsCmd.AddCommand(chaletsDeleteCmd)
}
