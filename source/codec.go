package source

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// decoderPool keeps zstd decoders for reuse across part decodes.
type decoderPool struct {
	pool      sync.Pool
	maxMemory uint64
}

func newDecoderPool(maxMemory uint64) *decoderPool {
	return &decoderPool{maxMemory: maxMemory}
}

func (p *decoderPool) get() (*zstd.Decoder, error) {
	if dec, ok := p.pool.Get().(*zstd.Decoder); ok {
		return dec, nil
	}
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if p.maxMemory > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(p.maxMemory))
	}
	return zstd.NewReader(nil, opts...)
}

func (p *decoderPool) put(dec *zstd.Decoder) {
	p.pool.Put(dec)
}

// decode returns the raw bytes of a part encoded with c.
func (p *decoderPool) decode(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		dec, err := p.get()
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer p.put(dec)
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decode: %w", err)
		}
		return out, nil
	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decode: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}
