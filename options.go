package homemap

import "log/slog"

// DefaultPreviewBytes is the preview length used by PreviewText. It matches
// the number of leading bytes the producer captures per file.
const DefaultPreviewBytes = 2048

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report decode failures.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPreviewBytes sets the maximum preview length returned by PreviewText.
// Zero restores the default.
func WithPreviewBytes(n uint32) Option {
	return func(e *Engine) {
		if n == 0 {
			n = DefaultPreviewBytes
		}
		e.previewBytes = n
	}
}
