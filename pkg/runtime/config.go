package runtime

import "fmt"

// Config contains evaluator limits.
type Config struct {
	// MaxSteps is the maximum number of nodes visited between two
	// suspensions. It guards against graphs that loop without asking.
	// Default: 100000.
	MaxSteps int

	// MaxCallDepth is the maximum depth of the call stack.
	// Default: 1000.
	MaxCallDepth int
}

// DefaultConfig returns the default evaluator configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxSteps:     100000,
		MaxCallDepth: 1000,
	}
}

// Validate validates the evaluator configuration.
func (c *Config) Validate() error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("%w: max steps must be positive", ErrInvalidConfig)
	}
	if c.MaxCallDepth <= 0 {
		return fmt.Errorf("%w: max call depth must be positive", ErrInvalidConfig)
	}
	return nil
}

// WithMaxSteps sets the step limit.
func (c *Config) WithMaxSteps(n int) *Config {
	c.MaxSteps = n
	return c
}

// WithMaxCallDepth sets the call depth limit.
func (c *Config) WithMaxCallDepth(n int) *Config {
	c.MaxCallDepth = n
	return c
}
