package catalog

import (
	"regexp"
	"strings"
)

// maxSectionLength bounds the text isolated for one course record.
const maxSectionLength = 8000

// anchor is a located canonical token for the requested course.
type anchor struct {
	institution string
	suffix      string
	start       int
	end         int
}

// recordRequest holds the per-lookup values shared by every strategy.
type recordRequest struct {
	query  Query
	number CourseNumber
	target string
}

// AnchorStrategy locates candidate canonical tokens for the requested course.
type AnchorStrategy struct {
	Name string
	Find func(text string, req recordRequest) []anchor
}

// FieldStrategy recovers title and description from an isolated section.
type FieldStrategy struct {
	Name    string
	Extract func(section string, req recordRequest, a anchor) (title, description string, ok bool)
}

// Extractor locates the requested course record inside evidence text using
// ordered anchor and field strategies. The first strategy that succeeds wins.
type Extractor struct {
	target  string
	anchors []AnchorStrategy
	fields  []FieldStrategy
}

// NewExtractor creates an extractor harvesting equivalents for target.
// An empty target selects DefaultTargetInstitution.
func NewExtractor(target string) *Extractor {
	if strings.TrimSpace(target) == "" {
		target = DefaultTargetInstitution
	}
	return &Extractor{
		target:  target,
		anchors: []AnchorStrategy{exactSuffixAnchor, baseAnchor},
		fields:  []FieldStrategy{tightRowFields, looseFields},
	}
}

// Target returns the institution whose equivalents are harvested.
func (e *Extractor) Target() string {
	return e.target
}

// StrategyNames lists the anchor strategies followed by the field strategies, in order.
func (e *Extractor) StrategyNames() []string {
	names := make([]string, 0, len(e.anchors)+len(e.fields))
	for _, s := range e.anchors {
		names = append(names, s.Name)
	}
	for _, s := range e.fields {
		names = append(names, s.Name)
	}
	return names
}

// Extract finds the record for q inside text. It returns nil when the text
// holds no canonical token for the course or when every token belongs to
// another institution. The returned description is only as long as the field
// strategy guarantees; callers apply their own length gate.
func (e *Extractor) Extract(text string, q Query) *ExtractedCourse {
	q = q.Normalized()
	if q.Subject == "" {
		return nil
	}
	num := ParseNumber(q.Number)
	if num.Base == "" {
		return nil
	}
	req := recordRequest{query: q, number: num, target: e.target}

	for _, as := range e.anchors {
		for _, a := range as.Find(text, req) {
			if q.Institution != "" && !acceptsInstitution(q.Institution, a.institution, e.target) {
				continue
			}
			return e.buildRecord(text, req, a, as.Name)
		}
	}
	return nil
}

func (e *Extractor) buildRecord(text string, req recordRequest, a anchor, anchorName string) *ExtractedCourse {
	section := sectionAt(text, a, req.target)

	rec := &ExtractedCourse{
		Institution:     a.institution,
		Subject:         req.query.Subject,
		Number:          req.number.Base + a.suffix,
		NumberBase:      req.number.Base,
		Suffix:          a.suffix,
		RequestedSuffix: req.number.Suffix,
		IsVariant:       a.suffix != req.number.Suffix,
		Strategy:        anchorName,
	}

	for _, fs := range e.fields {
		title, desc, ok := fs.Extract(section, req, a)
		if !ok {
			continue
		}
		rec.Title = title
		rec.Description = desc
		rec.Strategy = anchorName + "/" + fs.Name
		break
	}

	rec.Matches = ExtractFromSection(section, req.target)
	return rec
}

// sectionAt isolates one record: from the anchor up to the next canonical
// token that does not belong to the target institution.
func sectionAt(text string, a anchor, target string) string {
	rest := text[a.end:]
	end := len(text)
	for _, tok := range FindTokens(rest) {
		if isTargetInstitution(tok.Institution, target) {
			continue
		}
		end = a.end + tok.Start
		break
	}
	section := text[a.start:end]
	if len(section) > maxSectionLength {
		section = section[:maxSectionLength]
	}
	return section
}

// ownFields returns the part of a section before the first target token, so
// loose patterns never pick up an equivalent's fields.
func ownFields(section, target string) string {
	for _, tok := range FindTokens(section) {
		if tok.Start > 0 && isTargetInstitution(tok.Institution, target) {
			return section[:tok.Start]
		}
	}
	return section
}

var exactSuffixAnchor = AnchorStrategy{
	Name: "exact-suffix-anchor",
	Find: func(text string, req recordRequest) []anchor {
		if req.number.Suffix == "" {
			return nil
		}
		re := regexp.MustCompile(institutionClass + `::(?i:` + regexp.QuoteMeta(req.query.Subject) + `)::` +
			regexp.QuoteMeta(req.number.Base) + `(?i:` + regexp.QuoteMeta(req.number.Suffix) + `)\b`)
		return findAnchors(text, re, req, func([]string) string { return req.number.Suffix })
	},
}

var baseAnchor = AnchorStrategy{
	Name: "base-anchor",
	Find: func(text string, req recordRequest) []anchor {
		re := regexp.MustCompile(institutionClass + `::(?i:` + regexp.QuoteMeta(req.query.Subject) + `)::` +
			regexp.QuoteMeta(req.number.Base) + `(?:\.0)?([A-Za-z]?)\b`)
		return findAnchors(text, re, req, func(groups []string) string { return strings.ToUpper(groups[1]) })
	},
}

func findAnchors(text string, re *regexp.Regexp, req recordRequest, suffix func([]string) string) []anchor {
	wantTarget := requestsTarget(req.query.Institution, req.target)
	var out []anchor
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		groups := make([]string, 0, len(m)/2-1)
		for i := 2; i < len(m); i += 2 {
			if m[i] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, text[m[i]:m[i+1]])
		}
		inst := cleanInstitution(groups[0])
		if isTargetInstitution(inst, req.target) && !wantTarget {
			continue
		}
		out = append(out, anchor{
			institution: inst,
			suffix:      suffix(groups),
			start:       m[0],
			end:         m[1],
		})
	}
	return out
}

// tightRowFields matches SUBJECT,NUMBER,<title>,"<description>" in one row.
var tightRowFields = FieldStrategy{
	Name: "tight-row",
	Extract: func(section string, req recordRequest, a anchor) (string, string, bool) {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(req.query.Subject) + `,\s*` +
			regexp.QuoteMeta(req.number.Base) + `(?:\.0)?` + optionalSuffix(a.suffix) +
			`,([^"\n]*?),\s*"([^"]{20,})"`)
		m := re.FindStringSubmatch(ownFields(section, req.target))
		if m == nil {
			return "", "", false
		}
		return cleanField(m[1]), cleanField(m[2]), true
	},
}

var quotedString = regexp.MustCompile(`"([^"]+)"`)

// looseFields takes the longest quoted string as description and a looser
// SUBJECT,NUMBER,<title>, pattern for the title.
var looseFields = FieldStrategy{
	Name: "loose",
	Extract: func(section string, req recordRequest, _ anchor) (string, string, bool) {
		own := ownFields(section, req.target)

		desc := ""
		for _, m := range quotedString.FindAllStringSubmatch(own, -1) {
			if s := cleanField(m[1]); len(s) >= MinLooseDescriptionLength && len(s) > len(desc) {
				desc = s
			}
		}

		title := ""
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(req.query.Subject) + `,\s*` +
			regexp.QuoteMeta(req.number.Base) + `(?:\.0)?[A-Za-z]?,([^,"\n]+),`)
		if m := re.FindStringSubmatch(own); m != nil {
			title = cleanField(m[1])
		}

		return title, desc, desc != "" || title != ""
	},
}

func optionalSuffix(suffix string) string {
	if suffix == "" {
		return ""
	}
	return `(?:` + regexp.QuoteMeta(suffix) + `)?`
}

func cleanField(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
