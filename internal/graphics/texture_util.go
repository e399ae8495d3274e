package graphics

import (
	"image"
	"image/color"
	"image/draw"

	"voxelstream/internal/registry"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// AtlasTilePixels is the edge length of one generated atlas tile.
const AtlasTilePixels = 8

// BuildAtlas paints every registered texture as a flat tile with a darker
// one pixel border. Unused tiles stay transparent.
func BuildAtlas(reg *registry.Registry) *image.RGBA {
	size := registry.AtlasTiles * AtlasTilePixels
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for _, tex := range reg.Textures() {
		c := rgba(tex.Color)
		edge := color.RGBA{R: darken(c.R), G: darken(c.G), B: darken(c.B), A: c.A}
		x0 := (tex.Index % registry.AtlasTiles) * AtlasTilePixels
		y0 := (tex.Index / registry.AtlasTiles) * AtlasTilePixels
		tile := image.Rect(x0, y0, x0+AtlasTilePixels, y0+AtlasTilePixels)
		draw.Draw(img, tile, &image.Uniform{C: edge}, image.Point{}, draw.Src)
		draw.Draw(img, tile.Inset(1), &image.Uniform{C: c}, image.Point{}, draw.Src)
	}
	return img
}

func darken(v uint8) uint8 { return uint8(uint16(v) * 3 / 4) }

// rgba unpacks 0xRRGGBBAA. The channels are stored as given, not premultiplied.
func rgba(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

// UploadTexture creates a nearest-filtered 2D texture from img.
func UploadTexture(img *image.RGBA) uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA,
		int32(img.Rect.Size().X),
		int32(img.Rect.Size().Y),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(img.Pix),
	)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return texture
}
