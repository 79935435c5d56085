package dedupe

type config struct {
	capacity int
}

// Option applies a configuration option to the Deduper.
type Option func(*config)

// WithCapacity sets how many IDs are remembered. Values <= 0 use DefaultCapacity.
func WithCapacity(n int) Option {
	return func(c *config) {
		c.capacity = n
	}
}
