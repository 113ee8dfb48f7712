package parser

// DefaultMaxDepth bounds parenthesis nesting and list-of-record recursion
// unless overridden with WithMaxDepth.
const DefaultMaxDepth = 32

// Options configure parsing.
type Options struct {
	// MaxDepth is the deepest allowed parenthesis nesting and the deepest
	// allowed chain of list-of-record predicates.
	MaxDepth int
	// StrictLiterals fails validation on a literal that does not convert to
	// its operand type. When false the failure is recorded on the clause
	// and raised only if that clause is evaluated.
	StrictLiterals bool
}

// Option configures parsing.
type Option func(*Options)

// WithMaxDepth sets the nesting bound. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxDepth = n
		}
	}
}

// WithStrictLiterals makes literal conversion failures validation errors.
func WithStrictLiterals(strict bool) Option {
	return func(o *Options) {
		o.StrictLiterals = strict
	}
}

func buildOptions(opts []Option) Options {
	o := Options{MaxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
