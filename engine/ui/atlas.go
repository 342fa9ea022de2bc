package ui

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	atlasSize = 256
	// whiteSize is the edge of the solid block in the atlas corner used for untextured quads.
	whiteSize = 4
	glyphGap  = 2
)

// Glyph locates one rasterized rune in the atlas.
type Glyph struct {
	UVMin   [2]float32
	UVMax   [2]float32
	Size    [2]float32 // pixels
	Offset  [2]float32 // from the pen position on the baseline to the top-left of the bitmap
	Advance float32
}

// Atlas is an RGBA texture holding the printable ASCII glyphs of one font face plus a solid
// white block. Coverage is stored in the alpha channel.
type Atlas struct {
	image      *image.RGBA
	glyphs     map[rune]Glyph
	ascent     float32
	lineHeight float32
	whiteUV    [2]float32
}

// NewAtlas rasterizes the Go Regular font at the given pixel size.
//
// Parameters:
//   - fontSize: the font size in pixels
//
// Returns:
//   - *Atlas: the packed atlas
//   - error: an error if the font could not be parsed or the glyphs do not fit
func NewAtlas(fontSize float64) (*Atlas, error) {
	if fontSize <= 0 {
		return nil, fmt.Errorf("invalid font size %v", fontSize)
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	defer face.Close()

	img := image.NewRGBA(image.Rect(0, 0, atlasSize, atlasSize))
	draw.Draw(img, image.Rect(0, 0, whiteSize, whiteSize), image.NewUniform(color.White), image.Point{}, draw.Src)

	a := &Atlas{
		image:   img,
		glyphs:  make(map[rune]Glyph),
		whiteUV: [2]float32{whiteSize / 2.0 / atlasSize, whiteSize / 2.0 / atlasSize},
	}
	metrics := face.Metrics()
	a.ascent = float32(metrics.Ascent.Ceil())
	a.lineHeight = float32(metrics.Height.Ceil())

	x, y := whiteSize+glyphGap, 0
	rowHeight := whiteSize
	for r := rune(32); r < 127; r++ {
		dr, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w, h := dr.Dx(), dr.Dy()

		if x+w > atlasSize {
			x = 0
			y += rowHeight + glyphGap
			rowHeight = 0
		}
		if y+h > atlasSize {
			return nil, fmt.Errorf("font size %v does not fit a %dx%d atlas", fontSize, atlasSize, atlasSize)
		}

		// the face reuses its mask buffer, so it is copied out before the next Glyph call
		draw.DrawMask(img, image.Rect(x, y, x+w, y+h), image.NewUniform(color.White), image.Point{}, mask, maskp, draw.Over)

		a.glyphs[r] = Glyph{
			UVMin:   [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			UVMax:   [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			Size:    [2]float32{float32(w), float32(h)},
			Offset:  [2]float32{float32(dr.Min.X), float32(dr.Min.Y)},
			Advance: float32(adv) / 64.0,
		}

		x += w + glyphGap
		rowHeight = max(rowHeight, h)
	}

	return a, nil
}

// Glyph returns the atlas entry for r.
func (a *Atlas) Glyph(r rune) (Glyph, bool) {
	g, ok := a.glyphs[r]
	return g, ok
}

// WhiteUV returns a texture coordinate inside the solid block.
func (a *Atlas) WhiteUV() [2]float32 {
	return a.whiteUV
}

// Ascent returns the distance in pixels from the top of a line to its baseline.
func (a *Atlas) Ascent() float32 {
	return a.ascent
}

// LineHeight returns the recommended line spacing in pixels.
func (a *Atlas) LineHeight() float32 {
	return a.lineHeight
}

// MeasureText returns the advance width of a single line of text in pixels. Runes missing from
// the atlas are skipped.
func (a *Atlas) MeasureText(text string) float32 {
	var w float32
	for _, r := range text {
		if g, ok := a.glyphs[r]; ok {
			w += g.Advance
		}
	}
	return w
}

// Image returns the atlas bitmap.
func (a *Atlas) Image() *image.RGBA {
	return a.image
}

// StagingData returns the atlas pixels ready for texture upload.
func (a *Atlas) StagingData() common.TextureStagingData {
	return common.TextureStagingData{
		Pixels: a.image.Pix,
		Width:  atlasSize,
		Height: atlasSize,
		Format: wgpu.TextureFormatRGBA8Unorm,
	}
}
