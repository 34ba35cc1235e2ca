// Package slugutil builds and validates ticket slugs: a twelve-digit
// timestamp prefix concatenated with a validated base slug of lowercase
// ASCII letters, digits, and internal single hyphens.
package slugutil

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/videticket/videticket/internal/domain"
	"github.com/videticket/videticket/internal/verr"
)

// basePattern is the shape of the base slug alone, without the timestamp
// prefix: domain.SlugPattern with the twelve-digit prefix stripped.
var basePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var nonSlugChar = regexp.MustCompile(`[^a-z0-9-]+`)
var multiHyphen = regexp.MustCompile(`-{2,}`)

// ValidateBase reports whether base, on its own, is a legal base slug.
func ValidateBase(base string) error {
	if !basePattern.MatchString(base) {
		return verr.New(verr.InvalidSlug, base)
	}
	return nil
}

// Validate reports whether slug (including its timestamp prefix) matches the
// full slug format.
func Validate(slug string) error {
	if !domain.SlugPattern.MatchString(slug) {
		return verr.New(verr.InvalidSlug, slug)
	}
	return nil
}

// NormalizeBase folds title into a candidate base slug: Unicode text is
// NFKD-normalized so accented characters degrade to their ASCII skeleton,
// case-folded to lowercase, and any run of non [a-z0-9] characters becomes a
// single hyphen; leading/trailing hyphens are trimmed.
func NormalizeBase(title string) string {
	folded := norm.NFKD.String(title)
	folded = stripNonASCII(folded)
	lower := cases.Lower(language.Und).String(folded)
	lower = nonSlugChar.ReplaceAllString(lower, "-")
	lower = multiHyphen.ReplaceAllString(lower, "-")
	return strings.Trim(lower, "-")
}

func stripNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Build constructs a full slug from a wall-clock time and a base, rejecting
// a base that does not validate.
func Build(at time.Time, base string) (string, error) {
	if err := ValidateBase(base); err != nil {
		return "", err
	}
	return at.Format("200601021504") + "-" + base, nil
}

// BuildFromTitle normalizes title into a base slug and builds the full slug
// with a timestamp prefix of at.
func BuildFromTitle(at time.Time, title string) (string, error) {
	base := NormalizeBase(title)
	return Build(at, base)
}
