package metrics

import (
	"bytes"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm compresses and decompresses archived metric snapshots. Each
// implementation wraps one compression library under a common name.
type Algorithm interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// AlgorithmByName returns the Algorithm matching name ("snappy", "zstd",
// "lz4", or "none"). An unrecognized name returns noneAlgorithm.
func AlgorithmByName(name string) Algorithm {
	switch name {
	case "snappy":
		return snappyAlgorithm{}
	case "zstd":
		return newZstdAlgorithm()
	case "lz4":
		return lz4Algorithm{}
	default:
		return noneAlgorithm{}
	}
}

type noneAlgorithm struct{}

func (noneAlgorithm) Name() string                     { return "none" }
func (noneAlgorithm) Compress(d []byte) ([]byte, error) { return d, nil }
func (noneAlgorithm) Decompress(d []byte) ([]byte, error) {
	return d, nil
}

type snappyAlgorithm struct{}

func (snappyAlgorithm) Name() string { return "snappy" }

func (snappyAlgorithm) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyAlgorithm) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

type lz4Algorithm struct{}

func (lz4Algorithm) Name() string { return "lz4" }

func (lz4Algorithm) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Algorithm) Decompress(data []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(r)
}

// zstdAlgorithm lazily builds its encoder/decoder on first use, since
// both are relatively expensive to construct.
type zstdAlgorithm struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newZstdAlgorithm() *zstdAlgorithm { return &zstdAlgorithm{} }

func (a *zstdAlgorithm) Name() string { return "zstd" }

func (a *zstdAlgorithm) Compress(data []byte) ([]byte, error) {
	if a.encoder == nil {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		a.encoder = enc
	}
	return a.encoder.EncodeAll(data, nil), nil
}

func (a *zstdAlgorithm) Decompress(data []byte) ([]byte, error) {
	if a.decoder == nil {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		a.decoder = dec
	}
	return a.decoder.DecodeAll(data, nil)
}
