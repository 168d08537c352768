// Package raster rasterizes SVG fragments to RGBA images, used by the DOM
// backend's offscreen canvas as a fallback path when a page's content can't
// be painted incrementally (first paint, or after a full relayout).
package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"math"
	"regexp"
	"strconv"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// defaultSize is used when an SVG's viewBox carries no usable dimensions.
const defaultSize = 2048

// strokeWidthRe matches stroke-width attributes and properties in SVG,
// capturing the numeric value for replacement.
var strokeWidthRe = regexp.MustCompile(`(stroke-width\s*[=:]\s*["']?)(\d+(?:\.\d+)?)(["']?)`)

// ScaleStrokeWidth multiplies every stroke-width value in svgData by factor.
// A factor of 0 or 1 returns svgData unchanged. Used when a page's DOM pixel
// density diverges from the nominal one the SVG fragment was authored at.
func ScaleStrokeWidth(svgData []byte, factor float64) []byte {
	if factor <= 0 || factor == 1.0 {
		return svgData
	}
	return strokeWidthRe.ReplaceAllFunc(svgData, func(match []byte) []byte {
		submatches := strokeWidthRe.FindSubmatch(match)
		if len(submatches) < 4 {
			return match
		}
		prefix, valueStr, suffix := submatches[1], submatches[2], submatches[3]
		value, err := strconv.ParseFloat(string(valueStr), 64)
		if err != nil {
			return match
		}
		newValueStr := strconv.FormatFloat(value*factor, 'f', -1, 64)
		return append(append(append([]byte{}, prefix...), newValueStr...), suffix...)
	})
}

// ToImage rasterizes svgData to an RGBA image sized per targetW/targetH:
//   - both zero: use the SVG's own viewBox (falling back to defaultSize square)
//   - one nonzero: scale by that dimension, keeping aspect ratio
//   - both nonzero: fit into that box, keeping aspect ratio
//
// strokeWidthFactor, if > 0 and != 1, scales stroke widths before rendering
// (see ScaleStrokeWidth) — used to compensate for a canvas pixel density
// that differs from the fragment's nominal one.
func ToImage(svgData []byte, targetW, targetH int, strokeWidthFactor float64) (image.Image, error) {
	if strokeWidthFactor > 0 && strokeWidthFactor != 1.0 {
		svgData = ScaleStrokeWidth(svgData, strokeWidthFactor)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}

	intrW := int(math.Ceil(icon.ViewBox.W))
	intrH := int(math.Ceil(icon.ViewBox.H))
	if intrW <= 0 {
		intrW = defaultSize
	}
	if intrH <= 0 {
		intrH = defaultSize
	}

	w, h := intrW, intrH
	switch {
	case targetW <= 0 && targetH <= 0:
		// keep intrinsic size
	case targetW > 0 && targetH <= 0:
		w = targetW
		h = int(math.Round(float64(w) * float64(intrH) / float64(intrW)))
	case targetH > 0 && targetW <= 0:
		h = targetH
		w = int(math.Round(float64(h) * float64(intrW) / float64(intrH)))
	default:
		scale := math.Min(float64(targetW)/float64(intrW), float64(targetH)/float64(intrH))
		w = int(math.Round(float64(intrW) * scale))
		h = int(math.Round(float64(intrH) * scale))
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.RGBA{R: 255, G: 255, B: 255, A: 255}}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}
