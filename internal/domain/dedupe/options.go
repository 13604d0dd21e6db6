package dedupe

const defaultMaxSize = 10_000

// Option applies a configuration option to the in-memory deduper.
type Option func(*window)

// WithMaxSize sets how many keys are remembered. Zero or less disables eviction.
func WithMaxSize(maxSize int) Option {
	return func(w *window) {
		w.maxSize = maxSize
	}
}
