package v2

import "fmt"

// SchemaParseError is returned when a schema document is malformed JSON or a
// keyword value has the wrong shape for its keyword.
type SchemaParseError struct {
	Msg            string
	EvaluationPath string
	SchemaLocation string
}

func (e *SchemaParseError) Error() string {
	if e.EvaluationPath == "" {
		return "schema parse error: " + e.Msg
	}
	return fmt.Sprintf("schema parse error at %s (%s): %s", e.EvaluationPath, e.SchemaLocation, e.Msg)
}

// DraftIncompatibleError is returned when a keyword form is illegal for the
// active draft (e.g. array-form "items" under 2020-12).
type DraftIncompatibleError struct {
	Keyword        string
	Draft          Draft
	SchemaLocation string
	Reason         string
}

func (e *DraftIncompatibleError) Error() string {
	return fmt.Sprintf("keyword %q is not valid for draft %s at %s: %s", e.Keyword, e.Draft, e.SchemaLocation, e.Reason)
}

// UnresolvedReferenceError is returned when a $ref/$dynamicRef/$recursiveRef
// target cannot be found, either at compile time (static $ref) or at the
// first attempt to use a lazily-resolved one.
type UnresolvedReferenceError struct {
	Ref            string
	SchemaLocation string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unable to resolve reference %q from %s", e.Ref, e.SchemaLocation)
}

// CyclicReferenceError describes a $ref cycle that makes no progress against
// the instance (infinite recursion with no measurable consumption of the
// instance pointer). Evaluate does not return it: its recursion guard
// (EvalContext.active) reports a repeated (schema, instance location) pair
// as valid instead of recursing again.
type CyclicReferenceError struct {
	SchemaLocation string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic reference with no instance progress at %s", e.SchemaLocation)
}

// Cancelled describes a cancellation signal observed by Evaluate between
// keyword evaluations. It is not returned as a Go error: Evaluate marks the
// Evaluation where it was observed invalid and appends this message to its
// Errors, leaving a partial tree.
type Cancelled struct {
	EvaluationPath string
}

func (e *Cancelled) Error() string {
	return "evaluation cancelled at " + e.EvaluationPath
}
