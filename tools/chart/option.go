package chart

type Option func(*Config)

// WithSize overrides the default 1280x720 canvas.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.width = width
		c.height = height
	}
}
