package cache

import "fmt"

// Config controls the atlas behind a Cache.
type Config struct {
	// InitialSize is the side of the square atlas texture created on the
	// first insertion.
	InitialSize int

	// MaxSize caps growth. Zero means the backend's maximum texture
	// dimension. Growth that would pass the backend maximum fails with
	// ErrGrowthExceedsLimit; growth past a smaller MaxSize fails with
	// ErrAtlasFull.
	MaxSize int

	// Padding is the transparent border, in texels, kept around every
	// entry so bilinear sampling never bleeds between neighbours.
	Padding int

	// AllowGrow enables doubling the atlas when eviction cannot make room.
	AllowGrow bool

	// RetainPixels keeps a CPU copy of every bitmap so a grown atlas can
	// be re-filled immediately. Without it, moved entries are marked stale
	// and re-rasterized on their next lookup.
	RetainPixels bool
}

// DefaultConfig returns a 1024x1024 growable atlas with a one texel border.
func DefaultConfig() Config {
	return Config{
		InitialSize:  1024,
		Padding:      1,
		AllowGrow:    true,
		RetainPixels: true,
	}
}

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cache: invalid config %s: %s", e.Field, e.Reason)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.InitialSize < 16 {
		return &ConfigError{Field: "InitialSize", Reason: "must be at least 16"}
	}
	if c.MaxSize != 0 && c.MaxSize < c.InitialSize {
		return &ConfigError{Field: "MaxSize", Reason: "must be zero or at least InitialSize"}
	}
	if c.Padding < 0 || c.Padding > 8 {
		return &ConfigError{Field: "Padding", Reason: "must be in [0, 8]"}
	}
	return nil
}
