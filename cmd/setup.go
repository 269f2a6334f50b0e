package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/andresmejia3/facereg/internal/utils"
	"github.com/spf13/cobra"
)

var setupRebuild bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Build or load the gallery from the enrollment folder",
	Long: `Loads the saved gallery, or builds it from the photos in the enrollment
folder when none is saved. Use --rebuild to rescan the folder unconditionally.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runSetup(cmd.Context(), setupRebuild)
	},
}

func init() {
	setupCmd.Flags().BoolVar(&setupRebuild, "rebuild", false, "Rescan the enrollment folder even if a gallery is saved")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(ctx context.Context, rebuild bool) error {
	eng, sys, err := newSystem()
	if err != nil {
		return err
	}
	defer eng.Close()

	if rebuild {
		fmt.Fprintf(os.Stderr, "📂 Scanning %s...\n", Cfg.EnrollDir)
		err = sys.Create(ctx)
	} else {
		err = sys.LoadOrCreate(ctx)
	}
	if err != nil {
		utils.ShowError("Failed to build gallery", err, "")
		return err
	}

	n := sys.Gallery().Len()
	if n == 0 {
		fmt.Printf("⚠️  No one enrolled. Add photos named <person_name>.jpg to %s\n", Cfg.EnrollDir)
		return nil
	}
	fmt.Printf("✨ Setup complete: %d people enrolled in %s\n", n, Gallery.Location())
	return nil
}
