package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// equivalentPattern recovers title, description and credits for one
// equivalent course. Patterns are tried from strictest to most lenient.
type equivalentPattern struct {
	name  string
	build func(fieldPrefix string) *regexp.Regexp
}

var equivalentPatterns = []equivalentPattern{
	{
		name: "row-with-credits",
		build: func(p string) *regexp.Regexp {
			return regexp.MustCompile(p + `,([^"\n]*?),\s*"([^"]*)"\s*,\s*(\d+(?:\.\d+)?)\s*,\s*(\d+(?:\.\d+)?)`)
		},
	},
	{
		name: "row",
		build: func(p string) *regexp.Regexp {
			return regexp.MustCompile(p + `,([^"\n]*?),\s*"([^"]*)"`)
		},
	},
	{
		name: "truncated-row",
		build: func(p string) *regexp.Regexp {
			return regexp.MustCompile(p + `,([^"\n]*?),\s*"([^"]*)$`)
		},
	},
}

// ExtractFromSection harvests up to MaxSectionMatches usable equivalents of
// the target institution from one record section.
func ExtractFromSection(section, target string) []EquivalentMatch {
	var out []EquivalentMatch
	for _, m := range harvestEquivalents(section, target) {
		if !m.Usable() {
			continue
		}
		out = append(out, m)
		if len(out) == MaxSectionMatches {
			break
		}
	}
	return out
}

// CollectAll aggregates equivalents for one course across every chunk.
//
// The course is identified by subject and number; only records whose suffix
// equals the number's suffix contribute, so a lecture never collects its
// lab's equivalents.
//
// Records are often split across partial copies of the same chunk, so a
// candidate whose description is unusable is replaced when another chunk
// carries a complete record for the same subject and number. Among usable
// candidates the first one seen wins. At most MaxCollectedMatches are returned.
func CollectAll(evidence []EvidenceChunk, institution, subject, number, target string) []EquivalentMatch {
	if strings.TrimSpace(subject) == "" || ParseNumber(number).Base == "" {
		return nil
	}
	if strings.TrimSpace(target) == "" {
		target = DefaultTargetInstitution
	}

	q := Query{Institution: institution, Subject: subject, Number: number}.Normalized()
	req := recordRequest{query: q, number: ParseNumber(q.Number), target: target}

	var order []string
	byKey := make(map[string]EquivalentMatch)

	for _, chunk := range evidence {
		for _, a := range baseAnchor.Find(chunk.Text, req) {
			if a.suffix != req.number.Suffix {
				continue
			}
			if q.Institution != "" && !acceptsInstitution(q.Institution, a.institution, target) {
				continue
			}
			for _, m := range harvestEquivalents(sectionAt(chunk.Text, a, target), target) {
				key := m.Key()
				prev, seen := byKey[key]
				switch {
				case !seen:
					order = append(order, key)
					byKey[key] = m
				case !prev.Usable() && m.Usable():
					byKey[key] = m
				case prev.Usable() && !prev.Hours.Valid && m.Usable() && m.Hours.Valid && sameDescription(prev, m):
					prev.Hours = m.Hours
					byKey[key] = prev
				}
			}
		}
	}

	var out []EquivalentMatch
	for _, key := range order {
		m := byKey[key]
		if !m.Usable() {
			continue
		}
		out = append(out, m)
		if len(out) == MaxCollectedMatches {
			break
		}
	}
	return out
}

func sameDescription(a, b EquivalentMatch) bool {
	return strings.EqualFold(strings.TrimSpace(a.Description), strings.TrimSpace(b.Description))
}

// harvestEquivalents returns one candidate per unique target token in
// section, in order of first appearance. A repeated token replaces an
// unusable candidate with a usable one, so the first valid hit wins.
func harvestEquivalents(section, target string) []EquivalentMatch {
	tokenRe := regexp.MustCompile(`(?i)(?:^|[^A-Za-z0-9])` + regexp.QuoteMeta(target) +
		`::([A-Za-z]{2,6})::(\d+(?:\.0)?[A-Za-z]*)`)

	var out []EquivalentMatch
	pos := make(map[string]int)
	for _, loc := range tokenRe.FindAllStringSubmatchIndex(section, -1) {
		subject := strings.ToUpper(section[loc[2]:loc[3]])
		number := strings.ToUpper(CleanNumber(section[loc[4]:loc[5]]))
		key := subject + "::" + number

		i, seen := pos[key]
		if seen && out[i].Usable() {
			continue
		}
		m := parseEquivalent(section[loc[0]:], subject, number)
		switch {
		case !seen:
			pos[key] = len(out)
			out = append(out, m)
		case m.Usable():
			out[i] = m
		}
	}
	return out
}

// parseEquivalent applies the equivalent patterns to the text following a
// target token.
func parseEquivalent(text, subject, number string) EquivalentMatch {
	m := EquivalentMatch{Subject: subject, Number: number}

	num := ParseNumber(number)
	prefix := `(?i)\b` + regexp.QuoteMeta(subject) + `,\s*` + regexp.QuoteMeta(num.Base) + `(?:\.0)?` + regexp.QuoteMeta(num.Suffix)

	for _, p := range equivalentPatterns {
		groups := p.build(prefix).FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		m.Title = cleanField(groups[1])
		m.Description = cleanField(groups[2])
		if len(groups) > 4 {
			lo, errLo := strconv.ParseFloat(groups[3], 64)
			hi, errHi := strconv.ParseFloat(groups[4], 64)
			if errLo == nil && errHi == nil {
				m.Hours = NewHours(lo, hi)
			}
		}
		break
	}
	return m
}
