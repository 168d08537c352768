package wire

import (
	"bytes"
	"testing"
)

func TestWriteRecordRoundTripsThroughReadAll(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteRecord(KindBuildVersion, []byte("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.WriteRecord(KindItem, []byte("world!!")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recs := r.Records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Kind != KindBuildVersion || string(recs[0].Payload) != "hello" {
		t.Fatalf("unexpected first record: %+v", recs[0])
	}
	if recs[1].Kind != KindItem || string(recs[1].Payload) != "world!!" {
		t.Fatalf("unexpected second record: %+v", recs[1])
	}
}

func TestReadAllRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("not-a-valid-stream-prefix")
	if _, err := ReadAll(buf); err == nil {
		t.Fatalf("expected an error for a bad magic prefix")
	}
}

func TestIndexOfCachesAndGroupsByKind(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteRecord(KindItem, []byte("a"))
	w.WriteRecord(KindFont, []byte("b"))
	w.WriteRecord(KindItem, []byte("c"))

	r, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idx := r.IndexOf(KindItem)
	if len(idx) != 2 || idx[0] != 0 || idx[1] != 2 {
		t.Fatalf("unexpected item indices: %v", idx)
	}
	// Second call should hit the cached index and return the same result.
	idx2 := r.IndexOf(KindItem)
	if len(idx2) != 2 {
		t.Fatalf("expected cached lookup to agree, got %v", idx2)
	}

	if _, ok := r.First(KindGarbageCollection); ok {
		t.Fatalf("expected no GarbageCollection record to be present")
	}
}

func TestRecordsAreThirtyTwoByteAligned(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteRecord(KindItem, []byte("x")) // 1-byte payload, needs padding

	// magic(8) + header(8) + payload(1) + pad(31) == 48; the property checked
	// is that the payload segment, including its padding, is a multiple of 32
	// bytes.
	total := buf.Len()
	afterHeader := total - 8 - 8
	if afterHeader%alignment != 0 {
		t.Fatalf("expected payload+padding to be 32-byte aligned, got %d bytes", afterHeader)
	}
}
