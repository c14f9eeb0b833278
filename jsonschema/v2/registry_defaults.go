package v2

// buildDefaultRegistry assembles every keyword this package implements into
// one KeywordRegistry, grouped the way spec.md's GLOSSARY groups them
// (Core, Applicator, Validation, Meta-Data, Format, Content) plus the
// discriminator supplement.
func buildDefaultRegistry() *KeywordRegistry {
	r := NewKeywordRegistry()
	registerCoreKeywords(r)
	registerApplicatorKeywords(r)
	registerValidationKeywords(r)
	registerMetadataKeywords(r)
	registerFormatKeyword(r)
	registerContentKeywords(r)
	return r
}
