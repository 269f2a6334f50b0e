package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/facereg/internal/config"
	"github.com/andresmejia3/facereg/internal/engine"
	"github.com/andresmejia3/facereg/internal/logger"
	"github.com/andresmejia3/facereg/internal/match"
	"github.com/andresmejia3/facereg/internal/recognizer"
	"github.com/andresmejia3/facereg/internal/render"
	"github.com/andresmejia3/facereg/internal/store"
	"github.com/andresmejia3/facereg/internal/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Options holds the flags shared by every command.
type Options struct {
	Mode        string
	Source      string
	EnrollDir   string
	Engine      string
	Gallery     string
	ModelsDir   string
	CascadeFile string
	Metric      string
	Threshold   float64
	ConfigPath  string
	LogFile     string
	LogLevel    string
}

const (
	ModeVideo = "video"
	ModeImage = "image"
	ModeSetup = "setup"
)

var (
	opts Options
	// Cfg is the merged configuration: defaults, config file, env, then flags.
	Cfg *config.Config
	// Log is the process logger, ready after PersistentPreRunE.
	Log *logrus.Logger
	// Gallery is the store shared by subcommands
	Gallery store.Store
)

// Version is the application version.
const Version = "0.1.0"

// skipStore marks commands that run without opening the gallery store.
const skipStore = "skip-store"

var rootCmd = &cobra.Command{
	Use:   "facereg",
	Short: "Face enrollment and recognition from a folder of named photos",
	Long: `facereg builds a gallery of faces from a folder of photos named after
each person (joao_silva.jpg -> "Joao Silva") and recognizes them on a webcam,
a video file or a single image.`,
	Version:       Version,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if Cfg, err = loadConfig(cmd); err != nil {
			return err
		}
		Log, err = logger.New(logger.Options{Level: Cfg.Log.Level, File: Cfg.Log.File})
		if err != nil {
			return err
		}

		if cmd.Annotations[skipStore] != "" {
			return nil
		}
		// Use the command's context (which will be cancellable) for the connection
		Gallery, err = store.Open(cmd.Context(), Cfg.Gallery)
		if err != nil {
			return fmt.Errorf("failed to open gallery %s: %w", Cfg.Gallery, err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		switch opts.Mode {
		case ModeSetup:
			return runSetup(cmd.Context(), false)
		case ModeImage:
			return runImage(cmd.Context(), Cfg.Source, imageOpts)
		case ModeVideo:
			return runVideo(cmd.Context(), Cfg.Source)
		default:
			return fmt.Errorf("invalid mode %q (want %s, %s or %s)", opts.Mode, ModeVideo, ModeImage, ModeSetup)
		}
	},
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// This tells Cobra not to print the version in the help text, which is cleaner.
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	err := rootCmd.ExecuteContext(ctx)
	closeGallery()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// closeGallery releases the store opened by PersistentPreRunE, if any.
// Cobra does not run post-run hooks after a failed RunE.
func closeGallery() {
	if Gallery == nil {
		return
	}
	if err := Gallery.Close(); err != nil && Log != nil {
		Log.WithError(err).Warn("failed to close gallery")
	}
	Gallery = nil
}

func init() {
	rootCmd.Flags().StringVar(&opts.Mode, "mode", ModeVideo, "Operation mode: video, image or setup")
	rootCmd.Flags().StringVar(&opts.Source, "source", "0", "Camera index or video file (video mode), image path (image mode)")
	rootCmd.Flags().BoolVar(&imageOpts.NoWindow, "no-window", false, "Image mode: do not open a window")
	rootCmd.Flags().StringVar(&imageOpts.Output, "output", "", "Image mode: save the annotated image to this file")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.EnrollDir, "cadastro", "cadastro", "Folder of enrollment photos named <person_name>.<ext>")
	pf.StringVarP(&opts.Engine, "engine", "e", "dlib", "Recognition engine: dlib, cascade or pigo")
	pf.StringVarP(&opts.Gallery, "gallery", "g", "face_encodings.gob", "Gallery location: .gob file, .db/.sqlite file or postgres:// URL")
	pf.StringVar(&opts.ModelsDir, "models", engine.DefaultModelsDir, "Folder with the dlib model files")
	pf.StringVar(&opts.CascadeFile, "cascade-file", "", "Detector cascade (default haarcascade_frontalface_default.xml for cascade, facefinder for pigo)")
	pf.StringVar(&opts.Metric, "metric", "", "Comparison metric: euclidean or cosine (dlib); ncc (cascade, pigo)")
	pf.Float64VarP(&opts.Threshold, "threshold", "t", 0, "Match threshold (default 0.6; 0.07 for cosine)")
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file (default ./facereg.yaml if present)")
	pf.StringVar(&opts.LogFile, "log-file", "", "Also write logs to this rotating file")
	pf.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// loadConfig reads .env, the config file and the environment, then applies
// only the flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	set := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			*dst = val
		}
	}
	set("engine", &cfg.Engine, opts.Engine)
	set("gallery", &cfg.Gallery, opts.Gallery)
	set("cadastro", &cfg.EnrollDir, opts.EnrollDir)
	set("source", &cfg.Source, opts.Source)
	set("models", &cfg.ModelsDir, opts.ModelsDir)
	set("cascade-file", &cfg.CascadeFile, opts.CascadeFile)
	set("metric", &cfg.Metric, opts.Metric)
	set("log-file", &cfg.Log.File, opts.LogFile)
	set("log-level", &cfg.Log.Level, opts.LogLevel)
	if flags.Changed("threshold") {
		threshold := opts.Threshold
		cfg.Threshold = &threshold
	}
	if cfg.Threshold != nil && *cfg.Threshold < 0 {
		return nil, fmt.Errorf("invalid threshold %v: must not be negative", *cfg.Threshold)
	}
	return cfg, nil
}

// newSystem builds the configured engine and a recognition system on top of
// the shared gallery store. The caller must Close the engine.
func newSystem() (engine.Engine, *recognizer.System, error) {
	var metric match.Metric
	if Cfg.Metric != "" {
		m, err := match.ParseMetric(Cfg.Metric)
		if err != nil {
			return nil, nil, err
		}
		metric = m
	}

	fmt.Fprintf(os.Stderr, "🚀 Starting %s engine...\n", Cfg.Engine)
	eng, err := engine.New(engine.Config{
		Kind:        Cfg.Engine,
		ModelsDir:   Cfg.ModelsDir,
		CascadeFile: Cfg.CascadeFile,
		Metric:      metric,
	})
	if err != nil {
		utils.ShowError("Failed to start recognition engine", err, engineHint(Cfg.Engine))
		return nil, nil, err
	}

	sys := recognizer.New(eng, Gallery, recognizer.Options{
		EnrollDir:   Cfg.EnrollDir,
		Threshold:   Cfg.Threshold,
		AutoRebuild: Cfg.AutoRebuild,
		Log:         Log,
		Progress:    os.Stderr,
	})
	m := sys.Matcher()
	Log.WithFields(logrus.Fields{"metric": m.Metric, "threshold": m.Threshold}).Debug("matcher ready")
	return eng, sys, nil
}

func engineHint(kind string) string {
	switch kind {
	case engine.KindDlib:
		return "place shape_predictor_5_face_landmarks.dat, dlib_face_recognition_resnet_model_v1.dat and mmod_human_face_detector.dat in the --models folder"
	case engine.KindCascade:
		return "pass --cascade-file pointing at OpenCV's haarcascade_frontalface_default.xml"
	case engine.KindPigo:
		return "pass --cascade-file pointing at pigo's facefinder cascade"
	default:
		return "choose --engine dlib, cascade or pigo"
	}
}

// styleFor picks the label style for an engine. Live video uses a larger font for dlib.
func styleFor(kind string, live bool) render.Style {
	s := render.Style{ShowScore: kind != engine.KindDlib, FontScale: 0.6}
	if live && kind == engine.KindDlib {
		s.FontScale = 1.0
	}
	return s
}
