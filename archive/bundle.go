package archive

import (
	"fmt"
	"io"
	"sort"

	fixzip "github.com/hidez8891/zip"
	"github.com/maruel/natural"
	"golang.org/x/text/encoding"
)

// moduleEntryName is the fixed path a bundle's serialized module stream is
// stored under, so a reader never has to guess.
const moduleEntryName = "module.wire"

// WriteBundle packages a serialized module stream (as produced by
// wire.WriteModule) together with its referenced asset blobs (images, fonts)
// into a single zip archive, asset names taken verbatim from assets' keys.
//
// Assets are written in natural-sorted-key order (numeric suffixes like
// "image-2" sort before "image-10") for a reproducible, human-scannable
// archive across runs over the same inputs.
func WriteBundle(w io.Writer, moduleStream []byte, assets map[string][]byte) error {
	zw := fixzip.NewWriter(w)
	defer zw.Close()

	mw, err := zw.Create(moduleEntryName)
	if err != nil {
		return fmt.Errorf("archive: creating module entry: %w", err)
	}
	if _, err := mw.Write(moduleStream); err != nil {
		return fmt.Errorf("archive: writing module entry: %w", err)
	}

	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))

	for _, name := range names {
		if !isSafePath(name) {
			return fmt.Errorf("archive: unsafe asset path %q", name)
		}
		aw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("archive: creating asset entry %q: %w", name, err)
		}
		if _, err := aw.Write(assets[name]); err != nil {
			return fmt.Errorf("archive: writing asset entry %q: %w", name, err)
		}
	}
	return nil
}

// ReadBundle opens a bundle at path and returns its module stream bytes plus
// every other entry as an asset blob keyed by its archive path.
func ReadBundle(path string) (moduleStream []byte, assets map[string][]byte, err error) {
	return ReadBundleWithEncoding(path, nil)
}

// ReadBundleWithEncoding is ReadBundle, but forces cp as the name encoding
// for entries the zip format itself flags as not UTF-8 — bundles built by
// older tools that predate UTF-8 zip names. A nil cp behaves exactly like
// ReadBundle.
func ReadBundleWithEncoding(path string, cp encoding.Encoding) (moduleStream []byte, assets map[string][]byte, err error) {
	r, err := fixzip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("archive: opening bundle %q: %w", path, err)
	}
	defer r.Close()

	assets = make(map[string][]byte)
	for _, f := range r.File {
		name := decodeEntryName(f, cp)
		if !isSafePath(name) {
			return nil, nil, fmt.Errorf("archive: unsafe entry path %q", name)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("archive: opening entry %q: %w", name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("archive: reading entry %q: %w", name, err)
		}
		if name == moduleEntryName {
			moduleStream = data
			continue
		}
		assets[name] = data
	}
	return moduleStream, assets, nil
}

// decodeEntryName converts f's name using cp when the zip format flags the
// entry as not UTF-8 (the original zip spec predates a standard name
// encoding), mirroring the teacher's --force-zip-cp accommodation for
// legacy archives. A nil cp, or an already-UTF-8 entry, returns the name
// unchanged; a decode failure also falls back to the raw name rather than
// failing the whole read.
func decodeEntryName(f *fixzip.File, cp encoding.Encoding) string {
	name := f.FileHeader.Name
	if cp == nil || !f.FileHeader.NonUTF8 {
		return name
	}
	if decoded, err := cp.NewDecoder().String(name); err == nil {
		return decoded
	}
	return name
}
