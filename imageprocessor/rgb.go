package imageprocessor

import (
	"image"
	"image/color"

	"panelscan/types"
)

// RGBImage is a decoded image flattened to 3 bytes per pixel, row-major,
// with no padding between rows
type RGBImage struct {
	Pix    []byte
	Width  int
	Height int
}

// ToRGB flattens any decoded image into an RGBImage. Alpha is dropped
// without compositing, so the stored colour of each pixel is kept.
func ToRGB(img image.Image) *RGBImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &RGBImage{Pix: make([]byte, w*h*types.Channels), Width: w, Height: h}

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := out.Pix[y*w*types.Channels:]
			for x := 0; x < w; x++ {
				dst[x*3], dst[x*3+1], dst[x*3+2] = row[x*4], row[x*4+1], row[x*4+2]
			}
		}
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := out.Pix[y*w*types.Channels:]
			for x := 0; x < w; x++ {
				p := row[x*4 : x*4+4]
				if p[3] != 0xff {
					// premultiplied; undo it the same way NRGBAModel does
					c := color.NRGBAModel.Convert(color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}).(color.NRGBA)
					dst[x*3], dst[x*3+1], dst[x*3+2] = c.R, c.G, c.B
					continue
				}
				dst[x*3], dst[x*3+1], dst[x*3+2] = p[0], p[1], p[2]
			}
		}
	case *image.YCbCr:
		for y := 0; y < h; y++ {
			dst := out.Pix[y*w*types.Channels:]
			for x := 0; x < w; x++ {
				yi := src.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := src.COffset(b.Min.X+x, b.Min.Y+y)
				// RGBA() rather than YCbCrToRGB keeps results identical to
				// the generic path
				r, g, bl, _ := color.YCbCr{Y: src.Y[yi], Cb: src.Cb[ci], Cr: src.Cr[ci]}.RGBA()
				dst[x*3], dst[x*3+1], dst[x*3+2] = uint8(r>>8), uint8(g>>8), uint8(bl>>8)
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			dst := out.Pix[y*w*types.Channels:]
			for x := 0; x < w; x++ {
				v := row[x]
				dst[x*3], dst[x*3+1], dst[x*3+2] = v, v, v
			}
		}
	default:
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				out.Pix[i], out.Pix[i+1], out.Pix[i+2] = c.R, c.G, c.B
				i += 3
			}
		}
	}
	return out
}

// Luminance converts an RGB buffer to 8-bit luma using the ITU-R 601-2
// weights also used by color.GrayModel
func Luminance(pixels []byte, width, height int) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, width, height))
	for i, j := 0, 0; j < width*height; i, j = i+3, j+1 {
		r, g, b := uint32(pixels[i]), uint32(pixels[i+1]), uint32(pixels[i+2])
		gray.Pix[j] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 16)
	}
	return gray
}
