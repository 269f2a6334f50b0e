package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andresmejia3/facereg/internal/types"
	"github.com/andresmejia3/facereg/internal/utils"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <image> <name>",
	Short: "Enroll one person from a single photo",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runAdd(cmd.Context(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(ctx context.Context, path, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if !utils.FileExists(path) {
		err := fmt.Errorf("image file not found: %s", path)
		utils.ShowError("Image file not found", err, "")
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

	if err := sys.AddPerson(ctx, path, name); err != nil {
		if errors.Is(err, types.ErrNoFace) {
			fmt.Println("✗ No face found in the image")
			return err
		}
		utils.ShowError("Failed to add person", err, "")
		return err
	}
	fmt.Printf("✓ %s added to the gallery\n", name)
	return nil
}
