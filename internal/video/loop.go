package video

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/andresmejia3/facereg/internal/engine"
	"github.com/andresmejia3/facereg/internal/recognizer"
	"github.com/andresmejia3/facereg/internal/render"
	"github.com/andresmejia3/facereg/internal/types"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// WindowTitle is the title of the live recognition window.
const WindowTitle = `Face Recognition - press "q" to quit`

// Options configures the loop.
type Options struct {
	Source Source
	Engine engine.Engine
	System *recognizer.System
	Style  render.Style
	Log    logrus.FieldLogger
}

// Run captures frames until the stream ends, "q" is pressed or ctx is cancelled.
// Detection runs on every other frame on a downscaled copy; the boxes from the
// last processed frame are drawn on the frames in between. "r" reloads the gallery.
func Run(ctx context.Context, opts Options) error {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	capture, err := open(opts.Source)
	if err != nil {
		return fmt.Errorf("failed to open video source %s: %w", opts.Source, err)
	}
	defer capture.Close()

	window := gocv.NewWindow(WindowTitle)
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	small := gocv.NewMat()
	defer small.Close()

	factor := engine.Downscale(opts.Engine.Kind())
	fps := NewFPS(time.Now())
	processThisFrame := true
	var dets []types.Detection

	log.WithField("source", opts.Source.String()).Info("recognition started; press 'q' to quit, 'r' to reload the gallery")
	stopped := func(msg string) {
		log.WithField("fps", fmt.Sprintf("%.1f", fps.Rate())).Info(msg)
	}

	for {
		select {
		case <-ctx.Done():
			stopped("interrupted")
			return nil
		default:
		}

		if ok := capture.Read(&frame); !ok || frame.Empty() {
			stopped("end of stream")
			return nil
		}

		if processThisFrame {
			if err := gocv.Resize(frame, &small, image.Point{}, factor, factor, gocv.InterpolationLinear); err != nil {
				return fmt.Errorf("failed to resize frame: %w", err)
			}
			faces, err := detect(opts.Engine, small)
			if err != nil {
				log.WithError(err).Warn("detection failed")
			} else {
				dets = opts.System.IdentifyAll(faces)
				for i := range dets {
					dets[i] = dets[i].Scale(1 / factor)
				}
			}
		}
		processThisFrame = !processThisFrame

		if err := render.DrawMat(&frame, dets, opts.Style); err != nil {
			return err
		}
		if rate, _ := fps.Tick(time.Now()); rate > 0 {
			if err := render.DrawFPS(&frame, rate); err != nil {
				return err
			}
		}

		window.IMShow(frame)
		switch window.WaitKey(1) & 0xFF {
		case 'q':
			stopped("recognition stopped")
			return nil
		case 'r':
			log.Info("reloading gallery")
			if err := opts.System.Reload(ctx); err != nil {
				log.WithError(err).Error("failed to reload gallery")
			}
		}
	}
}

func open(src Source) (*gocv.VideoCapture, error) {
	if src.IsDevice() {
		return gocv.VideoCaptureDevice(src.Device)
	}
	return gocv.VideoCaptureFile(src.Path)
}

// detect uses the engine's native OpenCV path when it has one.
func detect(e engine.Engine, frame gocv.Mat) ([]types.Face, error) {
	if md, ok := e.(engine.MatDetector); ok {
		return md.FacesMat(frame)
	}
	img, err := frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	return e.Faces(img)
}

// ShowImage displays img in a window until a key is pressed.
func ShowImage(title string, img gocv.Mat) {
	window := gocv.NewWindow(title)
	defer window.Close()
	window.IMShow(img)
	window.WaitKey(0)
}
