// Package sanitize strips issuer boilerplate from text extracted out of
// credit-card statements before it is sent for categorization.
package sanitize

import (
	"regexp"
	"strings"
)

// UOB statement boilerplate.
const (
	uobDisclaimerEN = `Please note that you are bound by a duty under the rules governing the operation of this account, to check the entries in the above statement. If you do not notify us in writing of any errors,
omissions or unauthorised debits within fourteen (14) days of this statement, the entries above shall be deemed valid, correct, accurate and conclusively binding upon you, and you shall have no
claim against the bank in relation thereto.`

	uobDisclaimerZH = `请注意，在此户口的管理条规下，您必须核对此结单所列项目，并在十四（1 4 ）天内，以书面通知本行任何错误、遗漏或未经授权支账，否则上述项目当被视为有效、适当和准确并受其约束，您不得向本行索取赔偿.`

	uobFooter = `United Overseas Bank Limited   •   80 Raffles Place UOB Plaza Singapore 048624  •  Co. Reg. No. 193500026Z  •  GST Reg. No. MR-8500194-3  •   www.uob.com.sg`
)

// DefaultPassages are the boilerplate passages removed by Sanitize.
var DefaultPassages = []string{uobDisclaimerEN, uobDisclaimerZH, uobFooter}

var endOfDetails = regexp.MustCompile(`(?i)-+\s*end\s+of\s+transaction\s+details\s*-+`)

var defaultSanitizer = New(DefaultPassages...)

// Sanitizer removes a fixed set of passages and everything after the
// "end of transaction details" marker.
type Sanitizer struct {
	passages []*regexp.Regexp
}

// New builds a Sanitizer for the given passages. Matching is case-insensitive
// and any run of whitespace in a passage matches any run of whitespace in the text.
func New(passages ...string) *Sanitizer {
	s := &Sanitizer{}
	for _, p := range passages {
		if re := passagePattern(p); re != nil {
			s.passages = append(s.passages, re)
		}
	}
	return s
}

// Sanitize cleans raw text with the default passages.
func Sanitize(raw string) string {
	return defaultSanitizer.Sanitize(raw)
}

// Sanitize removes every passage occurrence, then cuts the text at the first
// end-of-details marker. Text without any of them comes back unchanged.
func (s *Sanitizer) Sanitize(raw string) string {
	text := raw
	for _, re := range s.passages {
		text = re.ReplaceAllLiteralString(text, "")
	}
	return TruncateAtEndOfDetails(text)
}

// TruncateAtEndOfDetails drops the marker line and everything after it.
func TruncateAtEndOfDetails(text string) string {
	loc := endOfDetails.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]]
}

func passagePattern(passage string) *regexp.Regexp {
	words := strings.Fields(passage)
	if len(words) == 0 {
		return nil
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?is)` + strings.Join(words, `\s+`))
}
