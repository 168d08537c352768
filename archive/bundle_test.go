package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteBundleRoundTripsThroughReadBundle(t *testing.T) {
	var buf bytes.Buffer
	moduleStream := []byte("fake-module-stream")
	assets := map[string][]byte{
		"images/a.png": []byte("png-bytes"),
		"fonts/b.ttf":  []byte("ttf-bytes"),
	}

	if err := WriteBundle(&buf, moduleStream, assets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.tsvrb")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotModule, gotAssets, err := ReadBundle(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(gotModule, moduleStream) {
		t.Fatalf("expected module stream %q, got %q", moduleStream, gotModule)
	}
	if len(gotAssets) != len(assets) {
		t.Fatalf("expected %d assets, got %d", len(assets), len(gotAssets))
	}
	for name, data := range assets {
		if !bytes.Equal(gotAssets[name], data) {
			t.Fatalf("asset %q: expected %q, got %q", name, data, gotAssets[name])
		}
	}
}

func TestWriteBundleRejectsUnsafeAssetPaths(t *testing.T) {
	var buf bytes.Buffer
	err := WriteBundle(&buf, nil, map[string][]byte{"../../etc/passwd": []byte("x")})
	if err == nil {
		t.Fatalf("expected an error for an unsafe asset path")
	}
}

func TestReadBundleWithEncodingNilBehavesLikeReadBundle(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBundle(&buf, []byte("stream"), map[string][]byte{"a.png": []byte("x")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.tsvrb")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mod, assets, err := ReadBundleWithEncoding(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(mod) != "stream" || len(assets) != 1 {
		t.Fatalf("unexpected result: mod=%q assets=%v", mod, assets)
	}
}
