package t2v

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/webp" // decode-only: source documents may embed scanned webp covers

	"tsvr/doc"
	"tsvr/fingerprint"
	"tsvr/utils/images"
	"tsvr/vecir"
)

// maxEmbeddedDimension caps the longest side of a decoded raster image
// before it's embedded: oversize source images (the edge case the pass is
// required never to fail on) are downsampled rather than shipped at full
// resolution, which otherwise bloats every module that references them.
const maxEmbeddedDimension = 4096

// lowerImage stores the image's raw bytes by content fingerprint and wraps
// them in an Image item carrying the declared layout size. An ImageRef whose
// Alt matches doc.CommandEmbedAlt is routed through the pluggable
// CommandExecutor instead of ordinary decoding; a missing executor or a
// failing command falls back to the ordinary image lowering of the same
// bytes rather than failing the whole traversal (best-effort, matching the
// "missing glyph/oversize image" edge case).
func (b *Builder) lowerImage(img doc.ImageRef) fingerprint.Fingerprint {
	return b.StoreCached(img, func() vecir.VecItem {
		if img.Alt == doc.CommandEmbedAlt && b.Exec != nil {
			if item, err := b.Exec.Execute(img.Data); err == nil {
				return item
			}
			// fall through to the ordinary image path below
		}

		data := downsampleOversizeRaster(img.Data)
		ref := b.StoreBlob(data)
		size := vecir.FixSize(img.Size)
		return vecir.ImageItem{ImageRef: ref, Size: size}
	})
}

// downsampleOversizeRaster sniffs data's image type and, for a recognized
// raster format whose longest side exceeds maxEmbeddedDimension, decodes
// and re-encodes it at a capped resolution. Anything it can't confidently
// sniff, decode, or re-encode (vector formats, corrupt bytes, unsupported
// codecs) is returned unchanged — this step is a best-effort optimization,
// never a requirement for a successful lower.
func downsampleOversizeRaster(data []byte) []byte {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || kind.MIME.Type != "image" {
		return data
	}

	// Formats imaging can both decode and re-encode keep their own format on
	// the way out; anything else (webp scans, decoded via the registered
	// golang.org/x/image/webp codec) is re-encoded as JPEG, since shipping
	// it unchanged at full resolution would defeat the point of capping it.
	format, err := imaging.FormatFromExtension(kind.Extension)
	if err != nil {
		format = imaging.JPEG
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data
	}
	b := img.Bounds()
	if b.Dx() <= maxEmbeddedDimension && b.Dy() <= maxEmbeddedDimension {
		return data
	}

	resized := imaging.Fit(img, maxEmbeddedDimension, maxEmbeddedDimension, imaging.Lanczos)

	// A grayscale scan re-encoded as JPEG is materially smaller with only a
	// luma channel; collapse it before handing off to the encoder. JFIF
	// APP0 is also ensured, matching the compatibility accommodation some
	// downstream viewers (e.g. e-readers) require.
	if format == imaging.JPEG && images.IsGrayscale(resized) {
		gray := image.NewGray(resized.Bounds())
		for y := resized.Bounds().Min.Y; y < resized.Bounds().Max.Y; y++ {
			for x := resized.Bounds().Min.X; x < resized.Bounds().Max.X; x++ {
				gray.Set(x, y, resized.At(x, y))
			}
		}
		if out, err := images.EncodeJPEGWithDPI(gray, 85, images.DpiNoUnits, 0, 0); err == nil {
			return out
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return data
	}
	return buf.Bytes()
}
