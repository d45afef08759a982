package sequence

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"
	"sort"

	xdraw "golang.org/x/image/draw"

	"github.com/Rorical/stepscope/internal/models"
)

// MetadataFile is the per-sequence metadata resource name.
const MetadataFile = "metadata.json"

// FrameName returns the resource name of the frame for step index i.
func FrameName(i int) string {
	return fmt.Sprintf("step_%04d.png", i)
}

// Source resolves a sequence identifier to its metadata and frame rasters.
type Source interface {
	Metadata(ctx context.Context, id string) (*models.Metadata, error)
	Frame(ctx context.Context, id string, index int) (image.Image, error)
}

// DirSource serves sequences laid out as <root>/<id>/metadata.json and
// <root>/<id>/step_NNNN.png.
type DirSource struct {
	FS fs.FS
}

// NewDirSource wraps a file system whose root holds sequence directories.
func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{FS: fsys}
}

func (d *DirSource) Metadata(ctx context.Context, id string) (*models.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(d.FS, path.Join(id, MetadataFile))
	if err != nil {
		return nil, err
	}
	var meta models.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s: %w", MetadataFile, err)
	}
	return &meta, nil
}

func (d *DirSource) Frame(ctx context.Context, id string, index int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := d.FS.Open(path.Join(id, FrameName(index)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", FrameName(index), err)
	}
	return img, nil
}

// Sequences lists the directories under the root that carry a metadata file.
func Sequences(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := fs.Stat(fsys, path.Join(e.Name(), MetadataFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ToRGBA returns img as an *image.RGBA anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}
