package validate

import (
	"bytes"
	"image"
	"image/color"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fabricadesoftware/vumock/internal/domain"
)

// Image constraints of the target management API and the query API. The
// management ceiling is the odd number the real service enforces.
const (
	maxTargetImageBytes = 2359293
	maxQueryImageBytes  = 2 * 1024 * 1024
	maxQueryImageDim    = 30000
)

// checkTargetImage validates decoded image bytes for target upload: the
// blob must decode as PNG or JPEG in greyscale or opaque RGB, and stay
// under the file size ceiling.
func checkTargetImage(decoded []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(decoded))
	if err != nil {
		return domain.ErrBadImage
	}
	if format != "png" && format != "jpeg" {
		return domain.ErrBadImage
	}
	if !allowedColorModel(cfg.ColorModel) {
		return domain.ErrBadImage
	}
	if len(decoded) > maxTargetImageBytes {
		return domain.ErrImageTooLarge
	}
	return nil
}

// checkQueryImage validates the image part of a recognition query.
func checkQueryImage(data []byte) error {
	if len(data) > maxQueryImageBytes {
		return domain.ErrBadImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.ErrBadImage
	}
	if format != "png" && format != "jpeg" {
		return domain.ErrBadImage
	}
	if cfg.Width > maxQueryImageDim || cfg.Height > maxQueryImageDim {
		return domain.ErrBadImage
	}
	return nil
}

// allowedColorModel accepts greyscale and truecolor-without-alpha. PNGs
// with an alpha channel or a palette decode to other models and are
// rejected, matching the service's greyscale-or-RGB rule.
func allowedColorModel(m color.Model) bool {
	switch m {
	case color.GrayModel, color.Gray16Model,
		color.RGBAModel, color.RGBA64Model,
		color.YCbCrModel:
		return true
	}
	return false
}
