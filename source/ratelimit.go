package source

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// limitedReader charges every read against a shared byte limiter.
type limitedReader struct {
	ctx context.Context
	r   io.Reader
	lim *rate.Limiter
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if burst := lr.lim.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := lr.r.Read(p)
	if n > 0 {
		if werr := lr.lim.WaitN(lr.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
