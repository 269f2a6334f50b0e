package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/andresmejia3/facereg/internal/utils"
	"github.com/andresmejia3/facereg/internal/video"
	"github.com/spf13/cobra"
)

var videoCmd = &cobra.Command{
	Use:   "video [source]",
	Short: "Recognize faces live on a webcam or a video file",
	Long: `Opens the camera index or video file given as source (default: camera 0)
and labels every face it recognizes. Press "q" to quit and "r" to reload the gallery.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		source := Cfg.Source
		if len(args) == 1 {
			source = args[0]
		}
		return runVideo(cmd.Context(), source)
	},
}

func init() {
	rootCmd.AddCommand(videoCmd)
}

func runVideo(ctx context.Context, source string) error {
	eng, sys, err := newSystem()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := sys.LoadOrCreate(ctx); err != nil {
		utils.ShowError("Failed to load gallery", err, "")
		return err
	}
	if sys.Gallery().Len() == 0 {
		fmt.Fprintln(os.Stderr, "⚠️  Gallery is empty: every face will be labelled Unknown.")
	}

	err = video.Run(ctx, video.Options{
		Source: video.ParseSource(source),
		Engine: eng,
		System: sys,
		Style:  styleFor(eng.Kind(), true),
		Log:    Log,
	})
	if err != nil {
		utils.ShowError("Video recognition failed", err, "check that the camera index or video path is correct")
		return err
	}
	fmt.Println("✓ System shut down")
	return nil
}
