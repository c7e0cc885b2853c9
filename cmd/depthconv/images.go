package main

import (
	"image"
	"image/color"
	"math"

	"github.com/born-ml/depthconv/tensor"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// disparityScale converts raw disparity pixel values to the depth units the
// gate operates on.
const disparityScale = 120.0

// loadImage reads an image, resizes it to width x height when both are
// positive, and returns it as a [3, H, W] Float32 tensor with values in [0, 1].
func loadImage(path string, width, height int) (*tensor.RawTensor, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening image %q", path)
	}
	if width > 0 && height > 0 {
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	h, w := b.Dy(), b.Dx()

	t, err := tensor.Zeros(tensor.Shape{3, h, w}, tensor.Float32)
	if err != nil {
		return nil, err
	}
	data := t.AsFloat32()
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := nrgba.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			data[y*w+x] = float32(c.R) / 255
			data[plane+y*w+x] = float32(c.G) / 255
			data[2*plane+y*w+x] = float32(c.B) / 255
		}
	}
	return t, nil
}

// loadDisparity reads a single-channel disparity map and returns the depth
// [1, H, W] as raw pixel value / disparityScale. 16-bit maps keep their full
// range; maps of any other size than width x height are resampled with
// nearest-neighbour so no disparity values are invented.
func loadDisparity(path string, width, height int) (*tensor.RawTensor, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening disparity %q", path)
	}
	b := img.Bounds()
	if width > 0 && height > 0 && (b.Dx() != width || b.Dy() != height) {
		img = imaging.Resize(img, width, height, imaging.NearestNeighbor)
		b = img.Bounds()
	}
	h, w := b.Dy(), b.Dx()

	t, err := tensor.Zeros(tensor.Shape{1, h, w}, tensor.Float32)
	if err != nil {
		return nil, err
	}
	data := t.AsFloat32()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			data[y*w+x] = float32(rawDisparity(img, b.Min.X+x, b.Min.Y+y) / disparityScale)
		}
	}
	return t, nil
}

func rawDisparity(img image.Image, x, y int) float64 {
	switch m := img.(type) {
	case *image.Gray16:
		return float64(m.Gray16At(x, y).Y)
	case *image.Gray:
		return float64(m.GrayAt(x, y).Y)
	default:
		return float64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
	}
}

// saveChannel writes channel c of a [C, H, W] tensor as a grayscale PNG,
// stretching its value range to [0, 255].
func saveChannel(path string, t *tensor.RawTensor, c int) error {
	h, w := t.Dim(1), t.Dim(2)
	values := t.AsFloat32()[c*h*w : (c+1)*h*w]
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, float64(v))
		hi = math.Max(hi, float64(v))
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range values {
		img.Pix[i] = uint8(math.Round((float64(v) - lo) / span * 255))
	}
	return errors.Wrapf(imaging.Save(img, path), "saving %q", path)
}
