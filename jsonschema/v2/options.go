package v2

// OutputFormat selects one of the four standard result shapes (spec.md §4.F).
type OutputFormat string

const (
	OutputFlag         OutputFormat = "flag"
	OutputBasic        OutputFormat = "basic"
	OutputDetailed     OutputFormat = "detailed"
	OutputHierarchical OutputFormat = "hierarchical"
)

// ShortCircuitMode selects one of the three evaluation strategies described
// in spec.md §4.E.
type ShortCircuitMode string

const (
	FailFast              ShortCircuitMode = "fail-fast"
	CollectAll            ShortCircuitMode = "collect-all"
	CollectAnnotationsOnly ShortCircuitMode = "collect-annotations-only"
)

// Options bundles the evaluation-options passed to the compiler, following
// the teacher's functional-options shape (jsonschema/v2.Options/Option).
type Options struct {
	Draft             Draft
	AllowUnknownDraft bool
	OutputFormat      OutputFormat
	ShortCircuit      ShortCircuitMode
	CustomFormats     map[string]func(string) error
	Registry          *Registry
	KeywordRegistry   *KeywordRegistry
}

// Option mutates an Options value; pass any number to Compile/NewCompiler.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Draft:        DraftUnset,
		OutputFormat: OutputHierarchical,
		ShortCircuit: CollectAll,
		CustomFormats: map[string]func(string) error{},
	}
}

// WithDraft pins the active draft instead of detecting it from $schema.
func WithDraft(d Draft) Option { return func(o *Options) { o.Draft = d } }

// WithAllowUnknownDraft treats an unrecognized $schema URI as the registry
// default instead of a compile error.
func WithAllowUnknownDraft(allow bool) Option {
	return func(o *Options) { o.AllowUnknownDraft = allow }
}

// WithOutputFormat selects the output document shape.
func WithOutputFormat(f OutputFormat) Option { return func(o *Options) { o.OutputFormat = f } }

// WithShortCircuit selects the evaluation short-circuit strategy.
func WithShortCircuit(m ShortCircuitMode) Option { return func(o *Options) { o.ShortCircuit = m } }

// WithCustomFormat registers a validator for a "format" value not already
// known to the package.
func WithCustomFormat(name string, fn func(string) error) Option {
	return func(o *Options) {
		if o.CustomFormats == nil {
			o.CustomFormats = map[string]func(string) error{}
		}
		o.CustomFormats[name] = fn
	}
}

// WithRegistry supplies a pre-populated reference registry (e.g. one with a
// fetch hook already attached) instead of a fresh one.
func WithRegistry(r *Registry) Option { return func(o *Options) { o.Registry = r } }

// WithKeywordRegistry supplies a custom keyword registry instead of
// DefaultRegistry().
func WithKeywordRegistry(r *KeywordRegistry) Option { return func(o *Options) { o.KeywordRegistry = r } }
