/*
Package pixmod removes keyed background colors from raster images and stacks
the processed images as layers onto a fixed size output canvas.

Every layer runs through the same fixed sequence of stages: the color key
classifier marks the pixels matching the layer palette, the optional
selection restricts that mark, the mask refinement engine turns the mark into
the layer alpha (grow or shrink, island removal, feathering), the tonal
adjustments are applied, and finally the layer is rotated, scaled, placed
and blended onto the canvas.

The package works on *image.NRGBA buffers and never touches the filesystem.
All functions are pure: they read their inputs and return new buffers.

	package main

	import (
		"image"
		"image/color"

		"github.com/openpixmod/pixmod"
	)

	func main() {
		layer := pixmod.NewLayer(src)
		layer.Key.Palette = []pixmod.PaletteEntry{
			{Color: color.NRGBA{G: 255, A: 255}, Enabled: true},
		}
		layer.Refine.FeatherRadius = 2

		out, err := pixmod.Composite([]*pixmod.Layer{layer}, image.Pt(512, 512), pixmod.DefaultRenderOptions())
		if err != nil {
			log.Fatalf("compositing failed: %v", err)
		}
	}
*/
package pixmod
