// Package compress implements the size-adaptive, optionally chunked
// parallel compressor (C4), grounded on original_source's use of the
// `zstd` crate (`encode_all(&tar_data[..], 19)`) and adapted onto
// github.com/klauspost/compress/zstd, the zstd implementation already
// present in the teacher's own dependency graph.
package compress

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/KingTimer12/saveme-config/internal/errs"
	"github.com/KingTimer12/saveme-config/internal/perfconfig"
)

// largePayloadThreshold is the payload size above which Decompress uses
// a streaming decoder with a large buffer, per spec.md section 4.6.
const largePayloadThreshold = 20 << 20 // 20 MiB

// Compress compresses tarBytes into a tar.zst byte stream, choosing the
// compression level adaptively from cfg and splitting into
// independently-framed chunks for parallel compression when cfg says to.
func Compress(cfg *perfconfig.Config, tarBytes []byte) ([]byte, error) {
	if !cfg.ShouldUseParallel(len(tarBytes)) {
		return compressSequential(tarBytes, cfg.AdaptiveLevel(len(tarBytes)))
	}
	return compressParallel(cfg, tarBytes)
}

func compressSequential(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstdLevel(level)))
	if err != nil {
		return nil, errs.Wrap(errs.CompressionError, "new encoder", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return nil, errs.Wrap(errs.CompressionError, "write", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errs.Wrap(errs.CompressionError, "close", err)
	}
	return buf.Bytes(), nil
}

// compressParallel splits data into fixed-size chunks, compresses each
// chunk independently (each chunk is a complete, self-framed zstd
// stream) in its own goroutine bounded by cfg.ThreadCount, and
// concatenates the results in original order. Concatenated independent
// zstd frames decode transparently as a single logical stream.
func compressParallel(cfg *perfconfig.Config, data []byte) ([]byte, error) {
	chunkSize := cfg.OptimalChunkSize(len(data))
	if chunkSize <= 0 {
		chunkSize = len(data)
	}

	var chunks [][]byte
	for offset := 0; offset < len(data); offset += chunkSize {
		end := offset + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[offset:end])
	}

	level := cfg.AdaptiveLevel(len(data))
	compressed := make([][]byte, len(chunks))

	g := &errgroup.Group{}
	g.SetLimit(maxInt(cfg.ThreadCount, 1))
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			out, err := compressSequential(chunk, level)
			if err != nil {
				return err
			}
			compressed[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, c := range compressed {
		buf.Write(c)
	}
	return buf.Bytes(), nil
}

// Decompress decompresses a tar.zst byte stream back into tar bytes,
// using a streaming decoder with a large read buffer for payloads above
// largePayloadThreshold, per spec.md section 4.6.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.DecompressionError, "new decoder", err)
	}
	defer dec.Close()

	var out bytes.Buffer
	if len(data) > largePayloadThreshold {
		buf := make([]byte, 1<<20)
		if _, err := io.CopyBuffer(&out, dec, buf); err != nil {
			return nil, errs.Wrap(errs.DecompressionError, "streaming copy", err)
		}
	} else {
		if _, err := io.Copy(&out, dec); err != nil {
			return nil, errs.Wrap(errs.DecompressionError, "copy", err)
		}
	}
	return out.Bytes(), nil
}

func zstdLevel(level int) zstd.EncoderLevel {
	switch {
	case level <= 3:
		return zstd.SpeedFastest
	case level <= 9:
		return zstd.SpeedDefault
	case level <= 15:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
