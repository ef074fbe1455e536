package transform

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

// zlibCompressor implements the "zlib" compression option (spec §4.B)
// using klauspost/compress/zlib, a drop-in faster replacement for
// compress/zlib — the same library the teacher Python's compression.py
// wraps (stdlib zlib), but the faster ecosystem implementation available
// in the retrieved pack (AKJUS-bsc-erigon, ashita-ai-akashi,
// certenIO-certen-validator all depend on klauspost/compress).
type zlibCompressor struct{}

func newZlibCompressor() Compressor { return zlibCompressor{} }

func (zlibCompressor) Name() string { return "zlib" }

func (zlibCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (zlibCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
