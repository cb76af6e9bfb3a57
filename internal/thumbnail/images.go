package thumbnail

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	errorRed       = color.RGBA{R: 0xff, A: 0xff}
	placeholderBG  = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	placeholderInk = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

// ErrorImage draws a red w×h image with "Error" centered in white.
func ErrorImage(w, h int) *image.RGBA {
	return labelled(w, h, errorRed, color.White, "Error")
}

// PlaceholderImage draws a grey w×h image labelled "No preview".
func PlaceholderImage(w, h int) *image.RGBA {
	return labelled(w, h, placeholderBG, placeholderInk, "No preview")
}

func labelled(w, h int, bg, ink color.Color, label string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, label).Ceil()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	descent := metrics.Descent.Ceil()
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: face,
		Dot:  fixed.P((w-textWidth)/2, (h+ascent-descent)/2),
	}
	drawer.DrawString(label)
	return img
}
