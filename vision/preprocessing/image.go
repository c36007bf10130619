package preprocessing

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads an image in any registered format (png, jpeg, gif, bmp, tiff, webp)
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Channels returns the number of interleaved components a decoded image is
// stored with: 1 for grayscale, 4 for images carrying a straight alpha
// channel, 3 otherwise.
func Channels(img image.Image) int {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.NRGBAModel, color.NRGBA64Model:
		return 4
	}
	return 3
}

// is16Bit reports whether img stores 16 bits per component
func is16Bit(img image.Image) bool {
	switch img.ColorModel() {
	case color.Gray16Model, color.RGBA64Model, color.NRGBA64Model:
		return true
	}
	return false
}

// scale16 maps a 16-bit component to [0,255], rounding down like
// uint8(v / 65535.0 * 255).
func scale16(v uint16) uint8 {
	return uint8(uint32(v) * 255 / 0xffff)
}

// ToSample flattens img into an HWC uint8 buffer. 16-bit components are
// scaled down so every value lands in [0,255].
func ToSample(img image.Image) (pix []uint8, h, w, c int) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	c = Channels(img)
	pix = make([]uint8, h*w*c)

	if is16Bit(img) {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				at := img.At(b.Min.X+x, b.Min.Y+y)
				dst := pix[(y*w+x)*c : (y*w+x+1)*c]
				if c == 1 {
					dst[0] = scale16(color.Gray16Model.Convert(at).(color.Gray16).Y)
					continue
				}
				px := color.NRGBA64Model.Convert(at).(color.NRGBA64)
				comps := [4]uint16{px.R, px.G, px.B, px.A}
				for i := range dst {
					dst[i] = scale16(comps[i])
				}
			}
		}
		return pix, h, w, c
	}

	if c == 1 {
		if gray, ok := img.(*image.Gray); ok {
			for y := 0; y < h; y++ {
				row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
				copy(pix[y*w:(y+1)*w], row)
			}
			return pix, h, w, c
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				pix[y*w+x] = g.Y
			}
		}
		return pix, h, w, c
	}

	// imaging.Clone always yields a zero-origin *image.NRGBA
	nrgba := imaging.Clone(img)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := nrgba.Pix[y*nrgba.Stride+x*4 : y*nrgba.Stride+x*4+4]
			dst := pix[(y*w+x)*c : (y*w+x+1)*c]
			copy(dst, src[:c])
		}
	}
	return pix, h, w, c
}

// FromSample builds a fresh image from an HWC uint8 buffer: *image.Gray for
// one channel, opaque *image.RGBA for three and *image.NRGBA for four, so
// that Channels of the result is c. The returned image never aliases pix.
func FromSample(pix []uint8, h, w, c int) (image.Image, error) {
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("invalid sample dimensions %dx%d", h, w)
	}
	if len(pix) != h*w*c {
		return nil, fmt.Errorf("sample buffer has %d bytes, expected %d for %dx%dx%d", len(pix), h*w*c, h, w, c)
	}

	switch c {
	case 1:
		img := image.NewGray(image.Rect(0, 0, w, h))
		copy(img.Pix, pix)
		return img, nil
	case 3:
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < h*w; i++ {
			img.Pix[i*4+0] = pix[i*3+0]
			img.Pix[i*4+1] = pix[i*3+1]
			img.Pix[i*4+2] = pix[i*3+2]
			img.Pix[i*4+3] = 0xff
		}
		return img, nil
	case 4:
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		copy(img.Pix, pix)
		return img, nil
	}
	return nil, fmt.Errorf("unsupported channel count %d", c)
}

// Resize scales img to size x size with the given interpolation. A size of
// zero or less returns img unchanged. The result keeps the channel count of
// img: grayscale stays *image.Gray and RGB comes back as opaque *image.RGBA.
func Resize(img image.Image, size int, interp Interpolation) (image.Image, error) {
	if size <= 0 {
		return img, nil
	}
	filter, err := interp.Filter()
	if err != nil {
		return nil, err
	}

	resized := imaging.Resize(img, size, size, filter)
	switch Channels(img) {
	case 1:
		gray := image.NewGray(resized.Bounds())
		for i := 0; i < size*size; i++ {
			gray.Pix[i] = resized.Pix[i*4]
		}
		return gray, nil
	case 3:
		rgb := image.NewRGBA(resized.Bounds())
		copy(rgb.Pix, resized.Pix)
		for i := 3; i < len(rgb.Pix); i += 4 {
			rgb.Pix[i] = 0xff
		}
		return rgb, nil
	}
	return resized, nil
}
