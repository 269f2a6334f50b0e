package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/andresmejia3/facereg/internal/render"
	"github.com/andresmejia3/facereg/internal/utils"
	"github.com/andresmejia3/facereg/internal/video"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"
)

// ImageOptions controls how image-mode results are presented.
type ImageOptions struct {
	NoWindow bool
	Output   string
}

var imageOpts ImageOptions

var imageCmd = &cobra.Command{
	Use:   "image <path>",
	Short: "Recognize the faces in a single image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runImage(cmd.Context(), args[0], imageOpts)
	},
}

func init() {
	imageCmd.Flags().BoolVar(&imageOpts.NoWindow, "no-window", false, "Do not open a window with the result")
	imageCmd.Flags().StringVarP(&imageOpts.Output, "output", "o", "", "Save the annotated image to this file")
	rootCmd.AddCommand(imageCmd)
}

func runImage(ctx context.Context, path string, out ImageOptions) error {
	if !utils.FileExists(path) {
		err := fmt.Errorf("image file not found: %s", path)
		utils.ShowError("Image file not found", err, "pass an existing image with --source or as an argument")
		return err
	}

	eng, sys, err := newSystem()
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := sys.LoadOrCreate(ctx); err != nil {
		utils.ShowError("Failed to load gallery", err, "")
		return err
	}

	fmt.Fprintf(os.Stderr, "🔍 Processing image: %s\n", path)
	img, dets, err := sys.RecognizeFile(path)
	if err != nil {
		utils.ShowError("Recognition failed", err, "")
		return err
	}

	var people []string
	for _, d := range dets {
		if d.Known {
			fmt.Printf("✓ Identified: %s (confidence %.2f)\n", d.Name, d.Confidence)
		}
		people = append(people, d.Name)
	}
	if len(dets) == 0 {
		fmt.Println("❌ No faces detected in the provided image.")
	} else {
		fmt.Printf("People identified: [%s]\n", strings.Join(people, ", "))
	}

	style := styleFor(eng.Kind(), false)
	annotated := render.Annotate(img, dets, style)

	if out.Output != "" {
		if err := imaging.Save(annotated, out.Output); err != nil {
			utils.ShowError("Failed to save annotated image", err, "")
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Saved annotated image to %s\n", out.Output)
	}

	if !out.NoWindow {
		mat, err := gocv.ImageToMatRGB(img)
		if err != nil {
			return fmt.Errorf("failed to convert image: %w", err)
		}
		defer mat.Close()
		if err := render.DrawMat(&mat, dets, style); err != nil {
			return err
		}
		video.ShowImage("Face Recognition", mat)
	}
	return nil
}
