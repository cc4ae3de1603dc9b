package link

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedLink means that a link looks like a known variant,
// but the part holding the video code is missing
var ErrMalformedLink = errors.New("malformed link")

// Classify detects link variant by looking for trigger substrings.
// Returns false if the link is not recognized.
func Classify(link string) (Variant, bool) {
	for _, t := range triggers {
		if strings.Contains(link, t.substr) {
			return t.variant, true
		}
	}

	return "", false
}

// VideoCode extracts video code from a link.
// Unrecognized links return ok == false and no error,
// recognized but malformed links return an error wrapping ErrMalformedLink.
func VideoCode(link string) (code string, ok bool, err error) {
	kind, ok := Classify(link)
	if !ok {
		return "", false, nil
	}

	parsed, err := parseURL(link)
	if err != nil {
		return "", false, err
	}

	switch kind {
	case VariantEmbed:
		// - https://www.youtube.com/embed/rbCbho7aLYw
		path := rawPath(parsed)
		if path == "" {
			return "", false, errors.Wrapf(ErrMalformedLink, "embed link without path: %s", link)
		}

		return strings.ReplaceAll(path, "/embed/", ""), true, nil

	case VariantWatch:
		// - https://www.youtube.com/watch?v=rbCbho7aLYw&t=10
		if parsed.RawQuery == "" {
			return "", false, errors.Wrapf(ErrMalformedLink, "watch link without query: %s", link)
		}

		value, found := queryValue(parsed.RawQuery, "v")
		if !found {
			return "", false, errors.Wrapf(ErrMalformedLink, "watch link is missing 'v' query parameter: %s", link)
		}

		return value, true, nil

	case VariantShort:
		// - https://youtu.be/rbCbho7aLYw
		path := rawPath(parsed)
		if path == "" {
			return "", false, errors.Wrapf(ErrMalformedLink, "short link without path: %s", link)
		}

		return strings.Trim(path, "/"), true, nil
	}

	return "", false, nil
}

// Convert extracts video code from link and renders it as the given variant
func Convert(link string, to Variant) (string, bool, error) {
	if _, known := templates[to]; !known {
		return "", false, errors.Wrapf(ErrUnknownVariant, "%q", to)
	}

	code, ok, err := VideoCode(link)
	if err != nil || !ok {
		return "", ok, err
	}

	return Render(to, code), true, nil
}

// EmbedLink converts any supported link to https://www.youtube.com/embed/{code}
func EmbedLink(link string) (string, bool, error) {
	return Convert(link, VariantEmbed)
}

// WatchLink converts any supported link to https://www.youtube.com/watch/?v={code}
func WatchLink(link string) (string, bool, error) {
	return Convert(link, VariantWatch)
}

// ShortLink converts any supported link to https://youtu.be/{code}
func ShortLink(link string) (string, bool, error) {
	return Convert(link, VariantShort)
}

func parseURL(link string) (*url.URL, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedLink, "failed to parse url %s: %v", link, err)
	}

	// - youtu.be/rbCbho7aLYw
	// Without a scheme the host ends up in the path, so give it one if the first segment looks like a domain.
	if parsed.Scheme == "" && parsed.Host == "" && !strings.HasPrefix(link, "/") {
		host := link
		if idx := strings.IndexAny(host, "/?#"); idx != -1 {
			host = host[:idx]
		}

		if strings.Contains(host, ".") {
			if withScheme, err := url.Parse("https://" + link); err == nil {
				return withScheme, nil
			}
		}
	}

	return parsed, nil
}

// rawPath returns the path exactly as it was written in the link
func rawPath(parsed *url.URL) string {
	if parsed.RawPath != "" {
		return parsed.RawPath
	}

	return parsed.EscapedPath()
}

// queryValue looks up key in a raw query string. Pairs are separated by '&' only,
// values that can't be unescaped are returned as is. Last value wins.
func queryValue(rawQuery string, key string) (string, bool) {
	var (
		value string
		found bool
	)

	for _, pair := range strings.Split(rawQuery, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if unescape(k) != key {
			continue
		}

		value = unescape(v)
		found = true
	}

	return value, found
}

func unescape(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}

	return s
}
