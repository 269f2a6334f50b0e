package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/facereg/internal/store"
	"github.com/andresmejia3/facereg/internal/utils"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List everyone enrolled in the saved gallery",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runList(cmd)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command) {
	g, err := Gallery.Load(cmd.Context())
	if errors.Is(err, store.ErrNotFound) {
		fmt.Println("No gallery saved yet. Run setup first.")
		return
	}
	if err != nil {
		utils.Die("Failed to load gallery", err, "run setup --rebuild to recreate it")
	}

	if g.Len() == 0 {
		fmt.Println("No one enrolled.")
		return
	}

	fmt.Printf("Gallery %s (engine %s, %d values per face, built %s)\n\n",
		Gallery.Location(), g.Engine, g.Dim, g.BuiltAt.Local().Format("2006-01-02 15:04"))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tSOURCE\tADDED")
	fmt.Fprintln(w, "-\t----\t------\t-----")

	for i, e := range g.Entries {
		source := e.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, e.Name, source, e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}
