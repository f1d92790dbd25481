package imagep

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/anthonynsimon/bild/transform"

	"github.com/mysticBliss/doc-intelligence/internal/processor"
)

type opFunc func(img image.Image, params processor.Params) (image.Image, error)

var ops = map[string]opFunc{
	"to_grayscale": func(img image.Image, _ processor.Params) (image.Image, error) {
		return effect.Grayscale(img), nil
	},
	"binarize": func(img image.Image, params processor.Params) (image.Image, error) {
		level := params.Int("threshold", 128)
		if level < 0 || level > 255 {
			return nil, fmt.Errorf("threshold must be in [0, 255], got %d", level)
		}
		return segment.Threshold(img, uint8(level)), nil
	},
	"denoise": func(img image.Image, params processor.Params) (image.Image, error) {
		size := params.Float("kernel_size", 3)
		if size <= 0 {
			return nil, fmt.Errorf("kernel_size must be positive")
		}
		return effect.Median(img, size), nil
	},
	"enhance_contrast": func(img image.Image, params processor.Params) (image.Image, error) {
		return adjust.Contrast(img, params.Float("amount", 0.25)), nil
	},
	"opening": func(img image.Image, params processor.Params) (image.Image, error) {
		radius := params.Float("radius", 1)
		return effect.Dilate(effect.Erode(img, radius), radius), nil
	},
	"closing": func(img image.Image, params processor.Params) (image.Image, error) {
		radius := params.Float("radius", 1)
		return effect.Erode(effect.Dilate(img, radius), radius), nil
	},
	"canny": func(img image.Image, params processor.Params) (image.Image, error) {
		return effect.EdgeDetection(img, params.Float("radius", 1)), nil
	},
	"deskew":              deskew,
	"correct_perspective": cropToContent,
}

func opNames() []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	deskewDefaultMaxAngle = 10.0
	deskewStep            = 0.5
	deskewProbeHeight     = 256
)

// deskew estimates the skew angle by rotating a downscaled probe through
// candidate angles and picking the one that maximises the variance of
// per-row ink, then applies that rotation to the full image. Text lines
// aligned with the raster produce sharply peaked row profiles.
func deskew(img image.Image, params processor.Params) (image.Image, error) {
	maxAngle := params.Float("max_angle", deskewDefaultMaxAngle)
	if maxAngle <= 0 || maxAngle > 45 {
		return nil, fmt.Errorf("max_angle must be in (0, 45], got %v", maxAngle)
	}

	probe := probeGray(img)
	bestAngle := 0.0
	bestScore := rowVariance(probe)
	for angle := -maxAngle; angle <= maxAngle; angle += deskewStep {
		if angle == 0 {
			continue
		}
		rotated := transform.Rotate(probe, angle, &transform.RotationOptions{ResizeBounds: true})
		if score := rowVariance(toGray(rotated)); score > bestScore {
			bestScore = score
			bestAngle = angle
		}
	}

	if math.Abs(bestAngle) < deskewStep/2 {
		return img, nil
	}
	return transform.Rotate(img, bestAngle, &transform.RotationOptions{ResizeBounds: true}), nil
}

func probeGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if b.Dy() <= deskewProbeHeight || b.Dx() == 0 {
		return toGray(img)
	}
	width := b.Dx() * deskewProbeHeight / b.Dy()
	if width < 1 {
		width = 1
	}
	return toGray(transform.Resize(img, width, deskewProbeHeight, transform.Linear))
}

func rowVariance(g *image.Gray) float64 {
	b := g.Bounds()
	if b.Dy() == 0 {
		return 0
	}

	sums := make([]float64, 0, b.Dy())
	var total float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		var ink float64
		for x := b.Min.X; x < b.Max.X; x++ {
			ink += float64(255 - g.GrayAt(x, y).Y)
		}
		sums = append(sums, ink)
		total += ink
	}

	mean := total / float64(len(sums))
	var variance float64
	for _, s := range sums {
		d := s - mean
		variance += d * d
	}
	return variance / float64(len(sums))
}

// cropToContent approximates perspective correction by cropping to the
// bounding box of dark pixels plus a margin. Pages scanned with a border
// collapse to their content region.
func cropToContent(img image.Image, params processor.Params) (image.Image, error) {
	level := params.Int("threshold", 200)
	if level < 0 || level > 255 {
		return nil, fmt.Errorf("threshold must be in [0, 255], got %d", level)
	}
	margin := params.Int("margin", 8)

	gray := toGray(img)
	b := gray.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X - 1, b.Min.Y - 1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if gray.GrayAt(x, y).Y < uint8(level) {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if maxX < minX {
		// Blank page, nothing to crop to.
		return img, nil
	}

	rect := image.Rect(minX-margin, minY-margin, maxX+margin+1, maxY+margin+1).Intersect(b)
	return transform.Crop(img, rect), nil
}

func hashImage(img image.Image) string {
	rgba := toRGBA(img)
	sum := md5.Sum(rgba.Pix)
	return hex.EncodeToString(sum[:])
}

func toGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	b := img.Bounds()
	out := image.NewGray(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}
