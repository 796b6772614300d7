package facecube

import (
	"context"
	"image"

	"go.viam.com/facecube/rimage"
)

// Display shows the array being worked on.
type Display interface {
	Show(ctx context.Context, img image.Image) error
}

// NewFileDisplay returns a display that overwrites an image file on every frame. The format
// follows the file extension.
func NewFileDisplay(path string) Display {
	return &fileDisplay{path: path}
}

type fileDisplay struct {
	path string
}

func (fd *fileDisplay) Show(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if img.Bounds().Empty() {
		return nil
	}
	return rimage.WriteImageToFile(fd.path, img)
}
