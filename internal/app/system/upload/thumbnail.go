package upload

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// ThumbnailWidth is the width of generated gallery thumbnails.
const ThumbnailWidth = 480

// Thumbnail scales an image down to width (keeping aspect ratio) and
// encodes it as JPEG. Images already narrower are re-encoded unscaled.
func Thumbnail(f *File, width int) (*File, error) {
	img, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return &File{
		Name:        "thumb-" + f.Name,
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
	}, nil
}
