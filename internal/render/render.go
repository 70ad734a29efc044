// Package render rasterizes package labels: two Code128 barcodes with
// captions, the recipient name, and a bottom row of routing cells.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	minFontSize = 1
	maxFontSize = 100
)

var (
	faceOnce sync.Once
	faces    map[int]font.Face
)

// Faces are immutable after loadFaces, so concurrent renders share them.
func loadFaces() {
	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		panic(fmt.Sprintf("render: cannot parse embedded font: %v", err))
	}

	faces = make(map[int]font.Face, maxFontSize-1)
	for size := minFontSize; size < maxFontSize; size++ {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			panic(fmt.Sprintf("render: cannot build %dpt face: %v", size, err))
		}
		faces[size] = face
	}
}

type box struct {
	x0, y0, x1, y1 float64
}

func (b box) width() float64  { return b.x1 - b.x0 }
func (b box) height() float64 { return b.y1 - b.y0 }

func textExtent(face font.Face, text string) (int, int) {
	bounds, _ := font.BoundString(face, text)
	return (bounds.Max.X - bounds.Min.X).Ceil(), (bounds.Max.Y - bounds.Min.Y).Ceil()
}

// fitFace binary-searches for the largest face whose rendering of text
// stays inside the box.
func fitFace(b box, text string) font.Face {
	lo, hi := minFontSize, maxFontSize
	for hi-lo > 1 {
		size := lo + (hi-lo)/2
		w, h := textExtent(faces[size], text)
		if float64(w) < b.width() && float64(h) < b.height() {
			lo = size
		} else {
			hi = size
		}
	}
	return faces[lo]
}

func fitText(img draw.Image, b box, text string) {
	face := fitFace(b, text)
	w, h := textExtent(face, text)

	x := int(b.x0) + int((b.width()-float64(w))/2)
	y := int(b.y0) + int((b.height()-float64(h))/2)

	bounds, _ := font.BoundString(face, text)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
		// Shift the baseline so the glyph box lands at (x, y).
		Dot: fixed.Point26_6{
			X: fixed.I(x) - bounds.Min.X,
			Y: fixed.I(y) - bounds.Min.Y,
		},
	}
	d.DrawString(text)
}

func addBarcode(img draw.Image, value string, b box) error {
	code, err := code128.Encode(value)
	if err != nil {
		return &ValidationError{Field: "barcode", Reason: err.Error()}
	}

	w, h := int(b.width()), int(b.height())
	scaled, err := barcode.Scale(code, w, h)
	if err != nil {
		return fmt.Errorf("cannot scale barcode to %dx%d: %w", w, h, err)
	}

	rect := image.Rect(int(b.x0), int(b.y0), int(b.x0)+w, int(b.y0)+h)
	draw.Draw(img, rect, scaled, image.Point{}, draw.Src)
	return nil
}

// Render draws the label at the given pixel size. The layout uses fixed
// fractions of the canvas so it scales with the target media.
func Render(l Label, width, height int) (*image.Gray, error) {
	if err := l.Validate(0); err != nil {
		return nil, err
	}

	faceOnce.Do(loadFaces)

	w, h := float64(width), float64(height)
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	// Package ID block, right side.
	fitText(img, box{0.68 * w, 0.00 * h, 1.00 * w, 0.10 * h}, "package ID")
	if err := addBarcode(img, l.PackageID, box{0.68 * w, 0.10 * h, 1.00 * w, 0.50 * h}); err != nil {
		return nil, err
	}
	fitText(img, box{0.68 * w, 0.50 * h, 1.00 * w, 0.60 * h}, l.PackageID)

	// Inmate ID block, left side.
	fitText(img, box{0.02 * w, 0.00 * h, 0.65 * w, 0.10 * h}, "inmate ID")
	if err := addBarcode(img, l.InmateID, box{0.02 * w, 0.10 * h, 0.65 * w, 0.50 * h}); err != nil {
		return nil, err
	}
	fitText(img, box{0.02 * w, 0.50 * h, 0.65 * w, 0.60 * h}, l.InmateID)

	// Name band.
	fitText(img, box{0.00 * w, 0.60 * h, 1.00 * w, 0.90 * h}, l.InmateName)

	// Routing cells along the bottom.
	fitText(img, box{0.00 * w, 0.90 * h, 0.33 * w, 1.00 * h}, l.InmateJurisdiction)
	fitText(img, box{0.33 * w, 0.90 * h, 0.67 * w, 1.00 * h}, l.UnitName)
	fitText(img, box{0.67 * w, 0.90 * h, 1.00 * w, 1.00 * h}, l.UnitShippingMethod)

	return img, nil
}

// Rotate90 rotates counterclockwise, for portrait media printed with a
// landscape layout.
func Rotate90(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetGray(y-b.Min.Y, b.Max.X-1-x, src.GrayAt(x, y))
		}
	}
	return dst
}
