package wgpu

import (
	"fmt"
	"time"
)

// ShaderFormat selects how the embedded shader reaches the device.
type ShaderFormat int

const (
	// ShaderWGSL passes the WGSL source to the device.
	ShaderWGSL ShaderFormat = iota

	// ShaderSPIRV compiles the source to SPIR-V with naga first. Use it
	// for hal backends that do not accept WGSL.
	ShaderSPIRV
)

func (f ShaderFormat) String() string {
	switch f {
	case ShaderWGSL:
		return "wgsl"
	case ShaderSPIRV:
		return "spirv"
	default:
		return fmt.Sprintf("ShaderFormat(%d)", int(f))
	}
}

// Config holds configuration for a Backend.
type Config struct {
	// Width and Height are the render target size in pixels.
	Width, Height int

	// ShaderFormat selects WGSL or SPIR-V shader input.
	// Default: ShaderWGSL
	ShaderFormat ShaderFormat

	// Readback copies each submitted frame into Target.
	// Default: true
	Readback bool

	// SubmitTimeout bounds the wait for the GPU in Submit.
	// Default: 5s
	SubmitTimeout time.Duration

	// Label prefixes the debug labels of device objects.
	// Default: "gv"
	Label string
}

// DefaultConfig returns the default configuration for a width x height target.
func DefaultConfig(width, height int) Config {
	return Config{
		Width:         width,
		Height:        height,
		ShaderFormat:  ShaderWGSL,
		Readback:      true,
		SubmitTimeout: 5 * time.Second,
		Label:         "gv",
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Width <= 0 {
		return &ConfigError{Field: "Width", Reason: "must be positive"}
	}
	if c.Height <= 0 {
		return &ConfigError{Field: "Height", Reason: "must be positive"}
	}
	if c.ShaderFormat != ShaderWGSL && c.ShaderFormat != ShaderSPIRV {
		return &ConfigError{Field: "ShaderFormat", Reason: "unknown format " + c.ShaderFormat.String()}
	}
	if c.SubmitTimeout <= 0 {
		return &ConfigError{Field: "SubmitTimeout", Reason: "must be positive"}
	}
	return nil
}

func (c Config) label(s string) string {
	if c.Label == "" {
		return s
	}
	return c.Label + "_" + s
}
