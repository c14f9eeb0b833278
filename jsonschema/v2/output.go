package v2

import "sort"

// Output is the formatted evaluation result, shaped per spec.md §4.F. Only
// the fields relevant to the selected OutputFormat are populated; json tags
// follow the names used by the JSON Schema core output spec, matching the
// teacher's convention of tagging wire structs with their literal wire name.
type Output struct {
	Valid            bool      `json:"valid"`
	EvaluationPath   string    `json:"evaluationPath,omitempty"`
	SchemaLocation   string    `json:"schemaLocation,omitempty"`
	InstanceLocation string    `json:"instanceLocation,omitempty"`
	Error            string    `json:"error,omitempty"`
	Errors           []*Output `json:"errors,omitempty"`
	Annotations      []*Output `json:"annotations,omitempty"`
	Details          []*Output `json:"details,omitempty"`

	// Keyword and Value hold a leaf annotation entry's "name: value" pair
	// (an Output appended to a parent's Annotations slice rather than a
	// nested evaluation node).
	Keyword string `json:"keyword,omitempty"`
	Value   any    `json:"value,omitempty"`
}

// FormatOutput converts a raw Evaluation tree into the Output document shape
// selected by format.
func FormatOutput(ev *Evaluation, format OutputFormat) *Output {
	switch format {
	case OutputFlag:
		return formatFlag(ev)
	case OutputBasic:
		return formatBasic(ev)
	case OutputDetailed:
		return formatDetailed(ev)
	default:
		return formatHierarchical(ev)
	}
}

func formatFlag(ev *Evaluation) *Output {
	return &Output{Valid: ev.Valid}
}

// formatBasic produces one output unit per Evaluation node, depth-first, per
// the JSON Schema core "Basic" output structure (spec.md §4.F): each unit
// carries its own valid/path fields plus whatever errors or annotations that
// node itself raised, rather than flattening to leaf error/annotation
// entries only (a valid node with no annotations still gets a unit).
func formatBasic(ev *Evaluation) *Output {
	root := &Output{Valid: ev.Valid}
	collectBasicNodes(ev, &root.Details)
	return root
}

func collectBasicNodes(ev *Evaluation, out *[]*Output) {
	node := &Output{
		Valid:            ev.Valid,
		EvaluationPath:   ev.EvaluationPath.String(),
		SchemaLocation:   ev.SchemaLocation,
		InstanceLocation: ev.InstanceLocation.String(),
	}
	if len(ev.Errors) > 0 {
		node.Error = ev.Errors[0]
		for _, msg := range ev.Errors[1:] {
			node.Errors = append(node.Errors, &Output{Valid: false, Error: msg})
		}
	}
	if ev.Valid {
		for _, name := range sortedAnnotationNames(ev.Annotations) {
			node.Annotations = append(node.Annotations, &Output{Valid: true, Keyword: name, Value: ev.Annotations[name]})
		}
	}
	*out = append(*out, node)
	for _, child := range ev.Children {
		collectBasicNodes(child, out)
	}
}

// sortedAnnotationNames returns ann's keys in a fixed order so output
// documents are reproducible across runs instead of following Go's
// randomized map iteration.
func sortedAnnotationNames(ann map[string]any) []string {
	names := make([]string, 0, len(ann))
	for name := range ann {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatDetailed mirrors the tree structure but collapses nodes that have
// exactly one child and no error/annotation of their own, per spec.md §4.F's
// Detailed-format collapsing rule.
func formatDetailed(ev *Evaluation) *Output {
	node := detailedNode(ev)
	return collapseDetailed(node)
}

func detailedNode(ev *Evaluation) *Output {
	node := &Output{
		Valid:            ev.Valid,
		EvaluationPath:   ev.EvaluationPath.String(),
		SchemaLocation:   ev.SchemaLocation,
		InstanceLocation: ev.InstanceLocation.String(),
	}
	if len(ev.Errors) > 0 {
		node.Error = ev.Errors[0]
	}
	if ev.Valid {
		for _, name := range sortedAnnotationNames(ev.Annotations) {
			node.Annotations = append(node.Annotations, &Output{Valid: true, Keyword: name, Value: ev.Annotations[name]})
		}
	}
	for _, child := range ev.Children {
		node.Details = append(node.Details, detailedNode(child))
	}
	return node
}

func collapseDetailed(n *Output) *Output {
	for i, d := range n.Details {
		n.Details[i] = collapseDetailed(d)
	}
	if len(n.Details) == 1 && n.Error == "" && len(n.Annotations) == 0 {
		only := n.Details[0]
		only.Valid = n.Valid
		return only
	}
	return n
}

// formatHierarchical keeps the full tree shape, one Output node per
// Evaluation node, with no collapsing.
func formatHierarchical(ev *Evaluation) *Output {
	node := &Output{
		Valid:            ev.Valid,
		EvaluationPath:   ev.EvaluationPath.String(),
		SchemaLocation:   ev.SchemaLocation,
		InstanceLocation: ev.InstanceLocation.String(),
	}
	if len(ev.Errors) > 0 {
		node.Error = ev.Errors[0]
		for _, msg := range ev.Errors[1:] {
			node.Errors = append(node.Errors, &Output{Valid: false, Error: msg})
		}
	}
	for _, name := range sortedAnnotationNames(ev.Annotations) {
		node.Annotations = append(node.Annotations, &Output{Valid: true, Keyword: name, Value: ev.Annotations[name]})
	}
	for _, child := range ev.Children {
		node.Details = append(node.Details, formatHierarchical(child))
	}
	return node
}
