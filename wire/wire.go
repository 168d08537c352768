// Package wire frames a Module build as a flat record stream: a fixed
// magic header followed by a sequence of length-prefixed, 32-byte-aligned,
// tagged-union records.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the 8-byte stream prefix identifying a module record stream.
var Magic = [8]byte{'t', 's', 'v', 'r', 0, 0, 0, 0}

// alignment is the boundary every record's payload is zero-padded up to. The
// 8-byte magic and the 8-byte record headers are not padded, so record
// offsets in the stream are not themselves multiples of 32.
const alignment = 32

// Kind tags a record's payload type.
type Kind uint32

const (
	KindBuildVersion Kind = iota
	KindSourceMappingData
	KindPageSourceMapping
	KindGarbageCollection
	KindItem
	KindFont
	KindGlyph
	KindLayout
)

func (k Kind) String() string {
	switch k {
	case KindBuildVersion:
		return "BuildVersion"
	case KindSourceMappingData:
		return "SourceMappingData"
	case KindPageSourceMapping:
		return "PageSourceMapping"
	case KindGarbageCollection:
		return "GarbageCollection"
	case KindItem:
		return "Item"
	case KindFont:
		return "Font"
	case KindGlyph:
		return "Glyph"
	case KindLayout:
		return "Layout"
	default:
		return fmt.Sprintf("Kind(%d)", uint32(k))
	}
}

type recordHeader struct {
	Kind   uint32
	Length uint32
}

// Writer appends tagged, length-prefixed, 32-byte-aligned records to an
// underlying stream, writing the magic prefix on the first call.
type Writer struct {
	w           io.Writer
	wroteHeader bool
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteRecord appends one (kind, payload) record, padding payload to the
// next 32-byte boundary with zero bytes.
func (w *Writer) WriteRecord(kind Kind, payload []byte) error {
	if !w.wroteHeader {
		if _, err := w.w.Write(Magic[:]); err != nil {
			return err
		}
		w.wroteHeader = true
	}

	hdr := recordHeader{Kind: uint32(kind), Length: uint32(len(payload))}
	if err := binary.Write(w.w, binary.LittleEndian, hdr); err != nil {
		return err
	}
	if _, err := w.w.Write(payload); err != nil {
		return err
	}

	pad := padLen(len(payload))
	if pad > 0 {
		if _, err := w.w.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

func padLen(n int) int {
	rem := n % alignment
	if rem == 0 {
		return 0
	}
	return alignment - rem
}

// Record is one decoded (kind, payload) pair.
type Record struct {
	Kind    Kind
	Payload []byte
}

// Reader holds a fully decoded record stream plus a lazily built
// kind→indices index, cached on first IndexOf lookup.
type Reader struct {
	records []Record
	index   map[Kind][]int
}

// ReadAll decodes an entire record stream from r.
func ReadAll(r io.Reader) (*Reader, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("wire: reading magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("wire: bad magic %v", magic)
	}

	var records []Record
	for {
		var hdr recordHeader
		err := binary.Read(r, binary.LittleEndian, &hdr)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("wire: reading record header: %w", err)
		}

		payload := make([]byte, hdr.Length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("wire: reading record payload: %w", err)
		}
		if pad := padLen(int(hdr.Length)); pad > 0 {
			if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil {
				return nil, fmt.Errorf("wire: skipping record padding: %w", err)
			}
		}

		records = append(records, Record{Kind: Kind(hdr.Kind), Payload: payload})
	}

	return &Reader{records: records}, nil
}

// Records returns every decoded record in stream order.
func (r *Reader) Records() []Record { return r.records }

// IndexOf returns the stream indices of every record of the given kind,
// building and caching the kind→indices map on first use.
func (r *Reader) IndexOf(kind Kind) []int {
	if r.index == nil {
		r.index = make(map[Kind][]int)
		for i, rec := range r.records {
			r.index[rec.Kind] = append(r.index[rec.Kind], i)
		}
	}
	return r.index[kind]
}

// First returns the first record of the given kind, if any.
func (r *Reader) First(kind Kind) (Record, bool) {
	idx := r.IndexOf(kind)
	if len(idx) == 0 {
		return Record{}, false
	}
	return r.records[idx[0]], true
}

// WriteFramed is a convenience that writes a complete one-shot stream of
// records to w in one call.
func WriteFramed(w io.Writer, records []Record) error {
	ww := NewWriter(w)
	for _, rec := range records {
		if err := ww.WriteRecord(rec.Kind, rec.Payload); err != nil {
			return err
		}
	}
	return nil
}
