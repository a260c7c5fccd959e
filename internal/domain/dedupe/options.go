package dedupe

// Option configures a Deduper.
type Option func(*Ring)

// WithMaxSize bounds the number of remembered ids. When full, the oldest id is
// forgotten first. Zero or negative means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *Ring) {
		d.maxSize = maxSize
	}
}
