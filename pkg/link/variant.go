package link

import (
	"strings"

	"github.com/pkg/errors"
)

// Variant is a surface shape of a video link
type Variant string

const (
	VariantWatch = Variant("watch")
	VariantEmbed = Variant("embed")
	VariantShort = Variant("short")
)

// ErrUnknownVariant is returned when a variant name can't be recognized
var ErrUnknownVariant = errors.New("unknown link variant")

const placeholder = "{code}"

var templates = map[Variant]string{
	VariantWatch: "https://www.youtube.com/watch/?v={code}",
	VariantEmbed: "https://www.youtube.com/embed/{code}",
	VariantShort: "https://youtu.be/{code}",
}

// Order matters: a link may contain more than one trigger, first match wins.
var triggers = []struct {
	substr  string
	variant Variant
}{
	{"embed", VariantEmbed},
	{"watch", VariantWatch},
	{"youtu.be", VariantShort},
}

// Variants returns all supported variants
func Variants() []Variant {
	return []Variant{VariantWatch, VariantEmbed, VariantShort}
}

// ParseVariant converts user input (e.g. "Embed") to a Variant
func ParseVariant(name string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := templates[v]; !ok {
		return "", errors.Wrapf(ErrUnknownVariant, "%q", name)
	}

	return v, nil
}

// Template returns the format string used to render links of this variant
func (v Variant) Template() string {
	return templates[v]
}

// Render substitutes video code into the variant's template.
// Returns an empty string for unknown variants.
func Render(v Variant, code string) string {
	tmpl, ok := templates[v]
	if !ok {
		return ""
	}

	return strings.Replace(tmpl, placeholder, code, 1)
}
