package v2

// Draft identifies a published JSON Schema draft (or the draft-next track).
type Draft string

const (
	Draft6      Draft = "draft6"
	Draft7      Draft = "draft7"
	Draft2019   Draft = "draft2019-09"
	Draft2020   Draft = "draft2020-12"
	DraftNext   Draft = "draft-next"
	DraftUnset  Draft = ""
)

// Vocabulary URIs, per the 2019-09/2020-12 meta-schema split.
const (
	VocabCore       = "https://json-schema.org/draft/2020-12/vocab/core"
	VocabApplicator = "https://json-schema.org/draft/2020-12/vocab/applicator"
	VocabValidation = "https://json-schema.org/draft/2020-12/vocab/validation"
	VocabMetaData   = "https://json-schema.org/draft/2020-12/vocab/meta-data"
	VocabFormat     = "https://json-schema.org/draft/2020-12/vocab/format-annotation"
	VocabContent    = "https://json-schema.org/draft/2020-12/vocab/content"
	VocabUnevaluated = "https://json-schema.org/draft/2020-12/vocab/unevaluated"
)

var draftSchemaURIs = map[string]Draft{
	"http://json-schema.org/draft-06/schema#":  Draft6,
	"https://json-schema.org/draft-06/schema#": Draft6,
	"http://json-schema.org/draft-07/schema#":  Draft7,
	"https://json-schema.org/draft-07/schema#": Draft7,
	"https://json-schema.org/draft/2019-09/schema": Draft2019,
	"https://json-schema.org/draft/2020-12/schema": Draft2020,
}

// Dialect is the (draft, vocabulary-set) pair that determines which
// keywords are active for a schema resource.
type Dialect struct {
	Draft        Draft
	Vocabularies map[string]bool // vocabulary URI -> required(true)/optional(false)
}

func defaultVocabulariesFor(d Draft) map[string]bool {
	switch d {
	case Draft2020, DraftNext:
		return map[string]bool{
			VocabCore: true, VocabApplicator: true, VocabValidation: true,
			VocabMetaData: true, VocabFormat: true, VocabContent: true, VocabUnevaluated: true,
		}
	case Draft2019:
		return map[string]bool{
			VocabCore: true, VocabApplicator: true, VocabValidation: true,
			VocabMetaData: true, VocabFormat: true, VocabContent: true,
			VocabUnevaluated: true,
		}
	default: // draft6, draft7: no $vocabulary mechanism, everything active.
		return map[string]bool{}
	}
}

// NewDialect builds the default dialect for a draft.
func NewDialect(d Draft) *Dialect {
	return &Dialect{Draft: d, Vocabularies: defaultVocabulariesFor(d)}
}

// HasVocabulary reports whether vocab is active, honoring pre-2019-09
// drafts (which have no $vocabulary at all and so admit every keyword that
// applies to the draft itself).
func (d *Dialect) HasVocabulary(vocab string) bool {
	if d.Draft == Draft6 || d.Draft == Draft7 || d.Draft == DraftUnset {
		return true
	}
	return d.Vocabularies[vocab]
}

// DetectDraft resolves the active draft given (in priority order) an
// explicit option, a schema's own $schema value, and a registry default.
func DetectDraft(explicit Draft, schemaURI string, allowUnknown bool, registryDefault Draft) (Draft, error) {
	if explicit != DraftUnset {
		return explicit, nil
	}
	if schemaURI != "" {
		if d, ok := draftSchemaURIs[schemaURI]; ok {
			return d, nil
		}
		if allowUnknown {
			return registryDefault, nil
		}
		return DraftUnset, &SchemaParseError{Msg: "unknown $schema dialect: " + schemaURI}
	}
	return registryDefault, nil
}
