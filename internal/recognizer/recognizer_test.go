package recognizer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresmejia3/facereg/internal/gallery"
	"github.com/andresmejia3/facereg/internal/match"
	"github.com/andresmejia3/facereg/internal/store"
	"github.com/andresmejia3/facereg/internal/types"
	"github.com/sirupsen/logrus"
)

// fakeEngine signs an image file by its name: "ana.png" -> {1, 0}, "bruno.png" -> {0, 1}.
// Files whose name contains "empty" have no face.
type fakeEngine struct {
	kind  string
	faces []types.Face
}

var signatures = map[string][]float32{
	"ana":   {1, 0},
	"bruno": {0, 1},
}

func (f *fakeEngine) Kind() string         { return f.kind }
func (f *fakeEngine) Metric() match.Metric { return match.Euclidean }
func (f *fakeEngine) Close() error         { return nil }

func (f *fakeEngine) Enroll(path string) ([]float32, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.Contains(base, "empty") {
		return nil, types.ErrNoFace
	}
	if sig, ok := signatures[strings.ToLower(base)]; ok {
		return sig, nil
	}
	return []float32{0.5, 0.5}, nil
}

func (f *fakeEngine) Faces(img image.Image) ([]types.Face, error) {
	return f.faces, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setup(t *testing.T, files ...string) (dir string, s store.Store) {
	t.Helper()
	root := t.TempDir()
	dir = filepath.Join(root, "cadastro")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, store.NewFile(filepath.Join(root, "face_encodings.gob"))
}

func TestLoadOrCreateBuildsWhenMissing(t *testing.T) {
	ctx := context.Background()
	dir, st := setup(t, "ana.png", "bruno.jpg", "empty.jpg", "notes.txt")

	sys := New(&fakeEngine{kind: "fake"}, st, Options{EnrollDir: dir, Log: quietLogger()})
	if err := sys.LoadOrCreate(ctx); err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if got := sys.Gallery().Names(); len(got) != 2 || got[0] != "Ana" || got[1] != "Bruno" {
		t.Errorf("Unexpected names %v", got)
	}

	saved, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Gallery was not saved: %v", err)
	}
	if saved.Len() != 2 || saved.Engine != "fake" {
		t.Errorf("Saved gallery has %d entries for engine %s", saved.Len(), saved.Engine)
	}
}

func TestLoadOrCreateUsesStoredGallery(t *testing.T) {
	ctx := context.Background()
	dir, st := setup(t, "ana.png")

	stored := gallery.New("fake")
	stored.Add(gallery.NewEntry("Someone Else", "", []float32{3, 3}))
	if err := st.Save(ctx, stored); err != nil {
		t.Fatal(err)
	}

	sys := New(&fakeEngine{kind: "fake"}, st, Options{EnrollDir: dir, Log: quietLogger()})
	if err := sys.LoadOrCreate(ctx); err != nil {
		t.Fatal(err)
	}
	if got := sys.Gallery().Names(); len(got) != 1 || got[0] != "Someone Else" {
		t.Errorf("Expected stored gallery to be used, got %v", got)
	}
}

func TestLoadOrCreateRebuilds(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, ctx context.Context, st store.Store, path string)
	}{
		{
			name: "corrupt file",
			prepare: func(t *testing.T, ctx context.Context, st store.Store, path string) {
				os.WriteFile(path, []byte("garbage"), 0644)
			},
		},
		{
			name: "engine mismatch",
			prepare: func(t *testing.T, ctx context.Context, st store.Store, path string) {
				other := gallery.New("other-engine")
				other.Add(gallery.NewEntry("Ghost", "", []float32{9, 9, 9}))
				st.Save(ctx, other)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			dir, st := setup(t, "ana.png")
			tt.prepare(t, ctx, st, st.Location())

			sys := New(&fakeEngine{kind: "fake"}, st, Options{EnrollDir: dir, Log: quietLogger()})
			if err := sys.LoadOrCreate(ctx); err != nil {
				t.Fatalf("LoadOrCreate failed: %v", err)
			}
			if got := sys.Gallery().Names(); len(got) != 1 || got[0] != "Ana" {
				t.Errorf("Expected rebuilt gallery [Ana], got %v", got)
			}
		})
	}
}

func TestLoadOrCreateStaleFolder(t *testing.T) {
	ctx := context.Background()
	dir, st := setup(t, "ana.png")

	first := New(&fakeEngine{kind: "fake"}, st, Options{EnrollDir: dir, Log: quietLogger()})
	if err := first.LoadOrCreate(ctx); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(dir, "bruno.png"), []byte("x"), 0644)

	// Without AutoRebuild the stale gallery is kept
	kept := New(&fakeEngine{kind: "fake"}, st, Options{EnrollDir: dir, Log: quietLogger()})
	if err := kept.LoadOrCreate(ctx); err != nil {
		t.Fatal(err)
	}
	if kept.Gallery().Len() != 1 {
		t.Errorf("Expected stale gallery with 1 entry, got %d", kept.Gallery().Len())
	}

	rebuilt := New(&fakeEngine{kind: "fake"}, st, Options{EnrollDir: dir, AutoRebuild: true, Log: quietLogger()})
	if err := rebuilt.LoadOrCreate(ctx); err != nil {
		t.Fatal(err)
	}
	if rebuilt.Gallery().Len() != 2 {
		t.Errorf("Expected rebuilt gallery with 2 entries, got %d", rebuilt.Gallery().Len())
	}
}

func TestCreateEmptyFolderDoesNotSave(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	dir := filepath.Join(root, "missing", "cadastro")
	st := store.NewFile(filepath.Join(root, "g.gob"))

	sys := New(&fakeEngine{kind: "fake"}, st, Options{EnrollDir: dir, Log: quietLogger()})
	if err := sys.Create(ctx); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected enrollment folder to be created: %v", err)
	}
	if _, err := st.Load(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected nothing saved for empty gallery, got %v", err)
	}
}

func TestAddPerson(t *testing.T) {
	ctx := context.Background()
	dir, st := setup(t, "ana.png")
	sys := New(&fakeEngine{kind: "fake"}, st, Options{EnrollDir: dir, Log: quietLogger()})
	if err := sys.LoadOrCreate(ctx); err != nil {
		t.Fatal(err)
	}

	photo := filepath.Join(t.TempDir(), "bruno.png")
	if err := sys.AddPerson(ctx, photo, "Bruno Costa"); err != nil {
		t.Fatalf("AddPerson failed: %v", err)
	}
	saved, _ := st.Load(ctx)
	if saved.Len() != 2 || saved.Entries[1].Name != "Bruno Costa" {
		t.Errorf("Expected Bruno Costa saved as second entry, got %v", saved.Names())
	}

	err := sys.AddPerson(ctx, filepath.Join(t.TempDir(), "empty.png"), "Nobody")
	if !errors.Is(err, types.ErrNoFace) {
		t.Errorf("Expected ErrNoFace, got %v", err)
	}
}

func TestIdentify(t *testing.T) {
	ctx := context.Background()
	dir, st := setup(t, "ana.png", "bruno.png")
	sys := New(&fakeEngine{kind: "fake"}, st, Options{EnrollDir: dir, Log: quietLogger()})
	if err := sys.LoadOrCreate(ctx); err != nil {
		t.Fatal(err)
	}

	box := image.Rect(0, 0, 10, 10)
	known := sys.Identify(types.Face{Box: box, Signature: []float32{1, 0}})
	if !known.Known || known.Name != "Ana" || known.Confidence != 1 {
		t.Errorf("Expected exact match on Ana, got %+v", known)
	}

	unknown := sys.Identify(types.Face{Box: box, Signature: []float32{5, 5}})
	if unknown.Known || unknown.Name != types.UnknownName {
		t.Errorf("Expected Unknown, got %+v", unknown)
	}
	if unknown.Box != box {
		t.Errorf("Box not carried through: %v", unknown.Box)
	}
}

func TestIdentifyEmptyGallery(t *testing.T) {
	_, st := setup(t)
	sys := New(&fakeEngine{kind: "fake"}, st, Options{Log: quietLogger()})
	det := sys.Identify(types.Face{Signature: []float32{1, 0}})
	if det.Known || det.Name != types.UnknownName {
		t.Errorf("Expected Unknown with empty gallery, got %+v", det)
	}
}

func TestRecognizeFile(t *testing.T) {
	ctx := context.Background()
	dir, st := setup(t, "ana.png")
	fe := &fakeEngine{kind: "fake", faces: []types.Face{
		{Box: image.Rect(1, 1, 5, 5), Signature: []float32{1, 0.1}},
		{Box: image.Rect(6, 6, 9, 9), Signature: []float32{-4, 4}},
	}}
	sys := New(fe, st, Options{EnrollDir: dir, Log: quietLogger()})
	if err := sys.LoadOrCreate(ctx); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "group.png")
	f, _ := os.Create(path)
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(0, 0, color.White)
	png.Encode(f, img)
	f.Close()

	_, dets, err := sys.RecognizeFile(path)
	if err != nil {
		t.Fatalf("RecognizeFile failed: %v", err)
	}
	if len(dets) != 2 || dets[0].Name != "Ana" || dets[1].Known {
		t.Errorf("Unexpected detections %+v", dets)
	}

	if _, _, err := sys.RecognizeFile(filepath.Join(t.TempDir(), "nope.png")); err == nil ||
		!strings.Contains(err.Error(), "image file not found") {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestThresholdOption(t *testing.T) {
	_, st := setup(t)
	zero, tight := 0.0, 0.3
	tests := []struct {
		name      string
		threshold *float64
		want      float64
	}{
		{"Unset uses metric default", nil, match.Euclidean.DefaultThreshold()},
		{"Explicit zero is kept", &zero, 0},
		{"Explicit value", &tight, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := New(&fakeEngine{kind: "fake"}, st, Options{Threshold: tt.threshold, Log: quietLogger()})
			m := sys.Matcher()
			if m.Metric != match.Euclidean || m.Threshold != tt.want {
				t.Errorf("Matcher() = %+v, want threshold %v", m, tt.want)
			}
		})
	}
}

func TestZeroThresholdOnlyAcceptsExactMatch(t *testing.T) {
	ctx := context.Background()
	dir, st := setup(t, "ana.png")
	zero := 0.0
	sys := New(&fakeEngine{kind: "fake"}, st, Options{EnrollDir: dir, Threshold: &zero, Log: quietLogger()})
	if err := sys.LoadOrCreate(ctx); err != nil {
		t.Fatal(err)
	}
	if det := sys.Identify(types.Face{Signature: []float32{1, 0}}); !det.Known || det.Name != "Ana" {
		t.Errorf("Expected exact signature to match, got %+v", det)
	}
	if det := sys.Identify(types.Face{Signature: []float32{1, 0.1}}); det.Known {
		t.Errorf("Expected near signature to be Unknown with threshold 0, got %+v", det)
	}
}
