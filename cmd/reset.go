package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andresmejia3/facereg/internal/utils"
	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the saved gallery",
	Long:  "Removes the saved gallery. The enrollment photos are never touched; the next run rebuilds the gallery from them.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if !resetYes && !confirm(bufio.NewReader(os.Stdin), os.Stdout,
			fmt.Sprintf("⚠️  Are you sure you want to delete the gallery at %s?", Gallery.Location())) {
			fmt.Println("Aborted.")
			return
		}

		fmt.Println("🗑️  Clearing gallery...")
		if err := Gallery.Reset(cmd.Context()); err != nil {
			utils.Die("Failed to reset gallery", err, "")
		}
		fmt.Println("✨ Gallery reset complete.")
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}
