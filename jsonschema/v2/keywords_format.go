package v2

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oarkflow/date"
)

// Format keyword and its pluggable validators, ported from the legacy
// jsonschema/validator_format.go into the new evaluator: "format" never
// fails compilation for an unknown name (it's annotation-only there) but
// does fail evaluation when Options.CustomFormats/formatValidators know the
// name and the value doesn't conform, matching the "format-annotation" vs
// "format-assertion" vocabulary split by treating format as an assertion
// whenever a validator is registered for it — the common real-world choice
// also made by the teacher's own format handling.

const (
	hostnamePatternSrc    = `^([a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])(\.([a-zA-Z0-9]|[a-zA-Z0-9][a-zA-Z0-9\-]{0,61}[a-zA-Z0-9]))*$`
	unescapedTildaSrc     = `\~[^01]`
	endingTildaSrc        = `\~$`
	schemePrefixSrc       = `^[^\:]+\:`
	uriTemplateSrc        = `\{[^\{\}\\]*\}`
)

var (
	hostnamePattern     = regexp.MustCompile(hostnamePatternSrc)
	unescapedTildaRegex = regexp.MustCompile(unescapedTildaSrc)
	endingTildaRegex    = regexp.MustCompile(endingTildaSrc)
	schemePrefixRegex   = regexp.MustCompile(schemePrefixSrc)
	uriTemplateRegex    = regexp.MustCompile(uriTemplateSrc)
)

var formatValidators = map[string]func(string) error{
	"date-time":             isValidDateTime,
	"date":                  isValidDate,
	"time":                  isValidTime,
	"email":                 isValidEmail,
	"idn-email":             isValidIDNEmail,
	"hostname":              isValidHostname,
	"idn-hostname":          isValidIDNHostname,
	"ipv4":                  isValidIPv4,
	"ipv6":                  isValidIPv6,
	"uri":                   isValidURI,
	"uri-reference":         isValidURIRef,
	"iri":                   isValidIri,
	"iri-reference":         isValidIriRef,
	"uri-template":          isValidURITemplate,
	"json-pointer":          isValidJSONPointer,
	"relative-json-pointer": isValidRelJSONPointer,
	"regex":                 isValidRegex,
}

func registerFormatKeyword(r *KeywordRegistry) {
	r.Register(&KeywordDef{Name: "format", Priority: 3, Vocabulary: VocabFormat, Compile: compileFormat})
}

func compileFormat(raw any, s *Schema, sc *SchemaConstraint, siblings map[string]KeywordConstraint, ctx *CompileContext) (KeywordConstraint, error) {
	name, ok := raw.(string)
	if !ok {
		return nil, &SchemaParseError{Msg: "format must be a string", SchemaLocation: s.SchemaLocation()}
	}
	validate := formatValidators[name]
	if custom, ok := ctx.Options.CustomFormats[name]; ok {
		validate = custom
	}
	return &simpleKeyword{name: "format", fn: func(ev *Evaluation, ec *EvalContext) {
		ev.SetAnnotation("format", name)
		str, ok := ev.Instance.(string)
		if !ok || validate == nil {
			return
		}
		if err := validate(str); err != nil {
			ev.Fail("format", "%q does not satisfy format %q: %v", str, name, err)
		}
	}}, nil
}

func isValidDateTime(s string) error {
	if _, err := date.Parse(s); err == nil {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, s); err != nil {
		return fmt.Errorf("date-time incorrectly formatted: %w", err)
	}
	return nil
}

func isValidDate(s string) error {
	return isValidDateTime(s + "T08:30:06.283185Z")
}

func isValidTime(s string) error {
	return isValidDateTime("1963-06-19T" + s)
}

func isValidEmail(s string) error {
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("email address incorrectly formatted: %w", err)
	}
	return nil
}

func isValidIDNEmail(s string) error { return isValidEmail(s) }

func isValidHostname(s string) error {
	if !hostnamePattern.MatchString(s) || len(s) > 255 {
		return fmt.Errorf("invalid hostname string")
	}
	return nil
}

func isValidIDNHostname(s string) error {
	if len(s) > 255 {
		return fmt.Errorf("invalid idn hostname string")
	}
	for _, r := range s {
		if disallowedIdnChars[r] {
			return fmt.Errorf("invalid hostname: contains illegal character %#U", r)
		}
	}
	return nil
}

var disallowedIdnChars = map[rune]bool{
	0x0020: true, 0x002D: true, 0x00A2: true, 0x00A3: true, 0x00A4: true, 0x00A5: true,
	0x034F: true, 0x0640: true, 0x07FA: true, 0x180B: true, 0x180C: true, 0x180D: true,
	0x200B: true, 0x2060: true, 0x2104: true, 0x2108: true, 0x2114: true, 0x2117: true,
	0x2118: true, 0x211E: true, 0x211F: true, 0x2123: true, 0x2125: true, 0x2282: true,
	0x2283: true, 0x2284: true, 0x2285: true, 0x2286: true, 0x2287: true, 0x2288: true,
}

func isValidIPv4(s string) error {
	if !strings.Contains(s, ".") || net.ParseIP(s) == nil {
		return fmt.Errorf("invalid IPv4 address")
	}
	return nil
}

func isValidIPv6(s string) error {
	if !strings.Contains(s, ":") || net.ParseIP(s) == nil {
		return fmt.Errorf("invalid IPv6 address")
	}
	return nil
}

func isValidURIRef(s string) error {
	if _, err := url.Parse(s); err != nil {
		return fmt.Errorf("uri incorrectly formatted: %w", err)
	}
	if strings.Contains(s, "\\") {
		return fmt.Errorf("invalid uri")
	}
	return nil
}

func isValidURI(s string) error {
	if _, err := url.Parse(s); err != nil {
		return fmt.Errorf("uri incorrectly formatted: %w", err)
	}
	if !schemePrefixRegex.MatchString(s) {
		return fmt.Errorf("uri missing scheme prefix")
	}
	return nil
}

func isValidIri(s string) error    { return isValidURI(s) }
func isValidIriRef(s string) error { return isValidURIRef(s) }

func isValidURITemplate(s string) error {
	expanded := uriTemplateRegex.ReplaceAllString(s, "aaa")
	if strings.Contains(expanded, "{") || strings.Contains(expanded, "}") {
		return fmt.Errorf("invalid uri template")
	}
	return isValidURIRef(expanded)
}

func isValidJSONPointer(s string) error {
	if len(s) == 0 {
		return nil
	}
	if s[0] != '/' {
		return fmt.Errorf("non-empty references must begin with a '/' character")
	}
	rest := s[1:]
	if unescapedTildaRegex.MatchString(rest) || endingTildaRegex.MatchString(rest) {
		return fmt.Errorf("unescaped tilde")
	}
	return nil
}

func isValidRelJSONPointer(s string) error {
	parts := strings.SplitN(s, "/", 2)
	head := parts[0]
	if hashIdx := strings.Index(head, "#"); hashIdx >= 0 {
		head = head[:hashIdx]
	}
	if n, err := strconv.Atoi(head); err != nil || n < 0 {
		return fmt.Errorf("relative json pointer must begin with a non-negative integer")
	}
	rest := s[len(parts[0]):]
	if strings.HasPrefix(rest, "#") {
		return nil
	}
	return isValidJSONPointer(rest)
}

func isValidRegex(s string) error {
	if _, err := regexp.Compile(s); err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}
