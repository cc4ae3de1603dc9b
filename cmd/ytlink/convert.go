package main

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/mxpv/ytlink/pkg/link"
)

// convert prints video codes (or links of the given variant) one per line.
// Unrecognized and malformed links are reported after all links are processed.
func convert(w io.Writer, links []string, to string) error {
	var variant link.Variant
	if to != "" {
		v, err := link.ParseVariant(to)
		if err != nil {
			return err
		}
		variant = v
	}

	var result *multierror.Error

	for _, raw := range links {
		var (
			out string
			ok  bool
			err error
		)

		if variant == "" {
			out, ok, err = link.VideoCode(raw)
		} else {
			out, ok, err = link.Convert(raw, variant)
		}

		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		if !ok {
			result = multierror.Append(result, errors.Errorf("unsupported link: %s", raw))
			continue
		}

		if _, err := fmt.Fprintln(w, out); err != nil {
			return errors.Wrap(err, "failed to write output")
		}
	}

	return result.ErrorOrNil()
}
