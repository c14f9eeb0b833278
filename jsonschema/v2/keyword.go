package v2

import "sort"

// KeywordConstraint is the compiled, evaluator-ready form of one keyword
// within one SchemaConstraint (spec.md §3's "KeywordConstraint").
type KeywordConstraint interface {
	// Name is the keyword's JSON key.
	Name() string
	// Evaluate runs the keyword's semantics against ev, reading sibling
	// annotations already present on ev.Annotations (guaranteed populated
	// for every keyword compiled before this one, by priority order) and
	// setting ev.Annotations[Name()] / ev.Fail(...) as appropriate.
	Evaluate(ev *Evaluation, ec *EvalContext)
}

// CompileFunc builds a KeywordConstraint for one keyword of one schema. raw
// is the keyword's undecoded JSON value; sc is the SchemaConstraint under
// construction; siblings holds every already-compiled KeywordConstraint of
// the same schema (by name), available because compilation proceeds in
// ascending priority order (spec.md §4.D step 1).
type CompileFunc func(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error)

// KeywordDef is a keyword's registry entry: its applicability metadata plus
// its compiler.
type KeywordDef struct {
	Name       string
	Priority   int // lower runs first; $defs/$id use PriorityCore (sentinel minimum).
	Drafts     map[Draft]bool // nil/empty => every draft
	Vocabulary string         // "" => always active once the draft matches
	Compile    CompileFunc
}

// PriorityCore is the sentinel minimum priority reserved for $id/$defs-like
// bookkeeping keywords that never themselves fail or annotate but must be
// "compiled" (a no-op) before anything else looks at the schema.
const PriorityCore = -1000

func (d *KeywordDef) activeFor(dialect *Dialect) bool {
	if dialect == nil {
		return true
	}
	if len(d.Drafts) > 0 && !d.Drafts[dialect.Draft] {
		return false
	}
	if d.Vocabulary == "" {
		return true
	}
	return dialect.HasVocabulary(d.Vocabulary)
}

// KeywordRegistry maps keyword JSON names to their KeywordDef. A keyword
// name with no registered def (or whose def is inactive for the current
// dialect) falls through to UnrecognizedKeyword, which always evaluates to
// "valid, annotation = raw value" so round-tripping unknown keys never
// breaks an evaluation (spec.md §4.B).
type KeywordRegistry struct {
	defs map[string]*KeywordDef
}

// NewKeywordRegistry creates an empty registry; use DefaultRegistry for one
// pre-populated with every keyword this package implements.
func NewKeywordRegistry() *KeywordRegistry {
	return &KeywordRegistry{defs: map[string]*KeywordDef{}}
}

// Register adds or replaces a keyword definition. Library consumers call
// this to add custom keywords to a registry built from DefaultRegistry().
func (r *KeywordRegistry) Register(def *KeywordDef) {
	r.defs[def.Name] = def
}

// Lookup returns the def for name, and whether it is active under dialect.
func (r *KeywordRegistry) Lookup(name string, dialect *Dialect) (*KeywordDef, bool) {
	def, ok := r.defs[name]
	if !ok {
		return nil, false
	}
	return def, def.activeFor(dialect)
}

// ActiveNames returns every registered keyword name present in raw and
// active under dialect, ordered by ascending priority (ties broken
// alphabetically for determinism).
func (r *KeywordRegistry) ActiveNames(raw map[string]any, dialect *Dialect) []string {
	type entry struct {
		name     string
		priority int
	}
	var entries []entry
	for name := range raw {
		def, active := r.Lookup(name, dialect)
		if !active {
			continue
		}
		entries = append(entries, entry{name, def.Priority})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].name < entries[j].name
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

var defaultRegistry *KeywordRegistry

// DefaultRegistry returns the package's pre-populated keyword registry,
// built once on first use.
func DefaultRegistry() *KeywordRegistry {
	if defaultRegistry == nil {
		defaultRegistry = buildDefaultRegistry()
	}
	return defaultRegistry
}
