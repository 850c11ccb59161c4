package expr

import (
	"fmt"

	mapstructure "github.com/go-viper/mapstructure/v2"
)

// VarboundRelax selects how variable bounds are relaxed before interval
// evaluation (spec §6).
type VarboundRelax int

const (
	RelaxNone VarboundRelax = iota
	RelaxAbsolute
	RelaxRelative
)

func (r VarboundRelax) String() string {
	switch r {
	case RelaxAbsolute:
		return "absolute"
	case RelaxRelative:
		return "relative"
	default:
		return "none"
	}
}

// Config holds the recognized options of spec §6, following the same
// "plain struct + functional With... options + Validate/Clone" shape the
// teacher uses for StrategyConfig (strategy.go).
type Config struct {
	// MaxPropRounds upper-bounds alternations between forward and reverse
	// propagation within a single propagation call (§4.7).
	MaxPropRounds int

	// VarboundRelax and VarboundRelaxAmount control bound relaxation
	// before interval evaluation (§4.5), never crossing an integer value.
	VarboundRelax       VarboundRelax
	VarboundRelaxAmount float64

	// ConssideRelaxAmount widens constraint sides before intersecting
	// with a root's interval (§4.5, §4.7).
	ConssideRelaxAmount float64

	// Upgrade gates ingestion of legacy quadratic/nonlinear constraints
	// per source handler name (§6 "upgrade/<name>").
	Upgrade map[string]bool

	// MaxActiveIterators bounds the active-iterator index pool (§5); the
	// pool itself grows on demand (see Context), this is only a leak
	// backstop.
	MaxActiveIterators int

	// FeasTol is the feasibility tolerance used throughout violation and
	// redundancy checks (SCIPfeastol in spec §8, property 9).
	FeasTol float64
}

// DefaultConfig returns the configuration the teacher's
// DefaultStrategyConfig-equivalent: conservative, always-valid defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxPropRounds:       100,
		VarboundRelax:       RelaxAbsolute,
		VarboundRelaxAmount: 1e-6,
		ConssideRelaxAmount: 1e-9,
		Upgrade:             make(map[string]bool),
		MaxActiveIterators:  8,
		FeasTol:             1e-6,
	}
}

// Option mutates a Config; used with NewConfig the way the teacher
// composes StrategyConfig fields, but as variadic functional options
// rather than field assignment, since this Config has many independent
// knobs a caller typically sets only a few of.
type Option func(*Config)

// WithMaxPropRounds overrides MaxPropRounds.
func WithMaxPropRounds(n int) Option { return func(c *Config) { c.MaxPropRounds = n } }

// WithVarboundRelax overrides the bound-relaxation mode and amount.
func WithVarboundRelax(mode VarboundRelax, amount float64) Option {
	return func(c *Config) {
		c.VarboundRelax = mode
		c.VarboundRelaxAmount = amount
	}
}

// WithConssideRelax overrides ConssideRelaxAmount.
func WithConssideRelax(amount float64) Option {
	return func(c *Config) { c.ConssideRelaxAmount = amount }
}

// WithUpgrade toggles ingestion of a legacy constraint handler by name.
func WithUpgrade(name string, enabled bool) Option {
	return func(c *Config) {
		if c.Upgrade == nil {
			c.Upgrade = make(map[string]bool)
		}
		c.Upgrade[name] = enabled
	}
}

// WithFeasTol overrides FeasTol.
func WithFeasTol(tol float64) Option { return func(c *Config) { c.FeasTol = tol } }

// NewConfig builds a Config from DefaultConfig() plus the given options.
func NewConfig(opts ...Option) *Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the configuration is internally consistent, mirroring
// StrategyConfig.Validate.
func (c *Config) Validate() error {
	if c.MaxPropRounds <= 0 {
		return fmt.Errorf("expr: MaxPropRounds must be positive, got %d", c.MaxPropRounds)
	}
	if c.VarboundRelaxAmount < 0 {
		return fmt.Errorf("expr: VarboundRelaxAmount must be >= 0")
	}
	if c.ConssideRelaxAmount < 0 {
		return fmt.Errorf("expr: ConssideRelaxAmount must be >= 0")
	}
	if c.MaxActiveIterators <= 0 {
		return fmt.Errorf("expr: MaxActiveIterators must be positive")
	}
	if c.FeasTol <= 0 {
		return fmt.Errorf("expr: FeasTol must be positive")
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Upgrade = make(map[string]bool, len(c.Upgrade))
	for k, v := range c.Upgrade {
		cp.Upgrade[k] = v
	}
	return &cp
}

// DecodeOptions decodes an arbitrary map of solver options (as a host
// process might load from its own config file) into a Config, using
// mapstructure the way a larger host application commonly bridges a
// generic key/value options blob into a typed struct.
func DecodeOptions(raw map[string]interface{}) (*Config, error) {
	c := DefaultConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("expr: building options decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("expr: decoding options: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
