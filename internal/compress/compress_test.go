package compress

import (
	"bytes"
	"testing"

	"github.com/KingTimer12/saveme-config/internal/perfconfig"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	cfg := perfconfig.AutoDetect()
	data := bytes.Repeat([]byte("hello world "), 1000)

	compressed, err := Compress(cfg, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("round trip mismatch")
	}
}

func TestCompressParallelRoundTrip(t *testing.T) {
	cfg := perfconfig.AutoDetect()
	cfg.ChunkSize = 1024
	cfg.ThreadCount = 4
	data := bytes.Repeat([]byte("abcdefghij"), 5000) // 50000 bytes > chunk size

	if !cfg.ShouldUseParallel(len(data)) {
		t.Fatal("expected parallel path to trigger for this config/size")
	}

	compressed, err := Compress(cfg, data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("parallel round trip mismatch")
	}
}

func TestAdaptiveCompressionBands(t *testing.T) {
	cfg := perfconfig.AutoDetect()
	cfg.CompressionLevel = 19
	cfg.AdaptiveCompression = true

	cases := []struct {
		size int
		want int
	}{
		{500 * 1024, 19},
		{5 * 1024 * 1024, 17},
		{50 * 1024 * 1024, 15},
		{200 * 1024 * 1024, 6},
	}
	for _, c := range cases {
		got := cfg.AdaptiveLevel(c.size)
		if got != c.want {
			t.Errorf("AdaptiveLevel(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}
