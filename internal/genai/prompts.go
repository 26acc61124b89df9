package genai

import (
	"strings"

	"github.com/garyellow/triangulator-go/internal/stringutil"
)

// CandidateMaxChars bounds the deterministic description candidate embedded
// in the system prompt.
const CandidateMaxChars = 2000

// CatalogSystemPrompt instructs the model to validate a catalog entry and
// return the fixed JSON answer shape parsed by ParseCatalogAnswer.
const CatalogSystemPrompt = `You are a course catalog validation and course matching assistant.

GOAL
You must determine:
- whether an institution catalog is indexed ("found" or "not_indexed"),
- whether the requested course is an exact match, a fuzzy match, or no match,
- return EXACTLY the JSON schema below, no extra text.

PRINCIPLES (strict)
- Do NOT hallucinate courses, institutions, subjects, numbers, or descriptions.
- Use only the catalog evidence provided in the conversation.
- Records look like INSTITUTION::SUBJECT::NUMBER,<fields>,TITLE,"DESCRIPTION" and
  may be followed by the ASU::SUBJECT::NUMBER records of equivalent courses.
- Be deterministic: apply the selection rules exactly.
- Always return exactly 3 ASU matches (may be empty objects).

NORMALIZATION
- requested_number_base = digits of the requested number; requested_number_suffix = its trailing letters (uppercased).

SELECTION
- Consider only records whose institution equals or closely matches the requested institution.
- Prefer the record with the same subject and number; then the same subject and number base.
- If the requested suffix (e.g. "L") has no record but the base number does, report the base record.

POPULATING input_course_description
- Copy the description of the selected record verbatim when it is at least 50 characters.
- Otherwise set input_course_description = "Cannot find the course description".

ASU EQUIVALENT MATCHES
- Report the ASU records attached to the selected record, in order, at most three.
- Do NOT invent ASU courses. Leave unused match objects empty.

OUTPUT JSON (STRICT, no extras)
Return ONLY this JSON object:

{
  "catalog_status": "found" | "not_indexed",
  "subject": "",
  "number": "",
  "title": "",
  "input_course_description": "",
  "candidate_description_used": "",
  "matches": {
    "match_1": { "subject": "", "number": "", "title": "", "description": "" },
    "match_2": { "subject": "", "number": "", "title": "", "description": "" },
    "match_3": { "subject": "", "number": "", "title": "", "description": "" }
  }
}`

const candidateRules = `

DETERMINISTIC DESCRIPTION SELECTION:
If a description candidate is provided between the markers above, use that text verbatim
as the primary source for "input_course_description" when the selection rules allow.
Do not invent, summarize, or replace it. If you cannot apply it, still return it in
"candidate_description_used" for audit.
`

// SystemPrompt returns the catalog system prompt, extended with the
// deterministic description candidate when one is given.
func SystemPrompt(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return CatalogSystemPrompt
	}

	var b strings.Builder
	b.WriteString(CatalogSystemPrompt)
	b.WriteString("\n\n--DETERMINISTIC_DESCRIPTION_CANDIDATE--\n")
	b.WriteString(stringutil.Truncate(candidate, CandidateMaxChars))
	b.WriteString("\n--END_DESCRIPTION_CANDIDATE--")
	b.WriteString(candidateRules)
	return b.String()
}

// UserPrompt renders the query and its evidence context for chat-style providers.
func UserPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("user_query: ")
	b.WriteString(strings.TrimSpace(req.Query))
	if ctx := strings.TrimSpace(req.Context); ctx != "" {
		b.WriteString("\n\ncatalog evidence (highest score first):\n")
		b.WriteString(ctx)
	}
	return b.String()
}
