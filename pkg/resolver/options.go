package resolver

const (
	// DefaultMaxDepth bounds nesting plus re-expansion of resolved values.
	DefaultMaxDepth = 20
	// DefaultMaxLookups bounds the reference lookups of one resolution.
	// Depth alone does not bound work: a value referencing two placeholders
	// per level doubles the lookups at every level.
	DefaultMaxLookups = 10000
)

// Policy decides what replaces a placeholder that cannot be resolved.
// Every policy records a diagnostic.
type Policy int

const (
	// PolicyKeepLiteral leaves the original "{...}" text in place.
	PolicyKeepLiteral Policy = iota
	// PolicyEmpty substitutes the empty string.
	PolicyEmpty
)

// ParsePolicy maps "literal"/"keep" and "empty" onto a Policy.
func ParsePolicy(name string) (Policy, bool) {
	switch name {
	case "", "literal", "keep", "keep_literal":
		return PolicyKeepLiteral, true
	case "empty":
		return PolicyEmpty, true
	}
	return PolicyKeepLiteral, false
}

func (p Policy) String() string {
	if p == PolicyEmpty {
		return "empty"
	}
	return "literal"
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth sets the depth bound. Values below 1 select DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}
		r.maxDepth = depth
	}
}

// WithMaxLookups sets the lookup budget of one resolution. Values below 1
// select DefaultMaxLookups.
func WithMaxLookups(n int) Option {
	return func(r *Resolver) {
		if n < 1 {
			n = DefaultMaxLookups
		}
		r.maxLookups = n
	}
}

// WithPolicy sets the unresolved-placeholder policy.
func WithPolicy(p Policy) Option {
	return func(r *Resolver) {
		r.policy = p
	}
}
