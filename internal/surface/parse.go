package surface

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrWong99/voiceselect/internal/override"
	"github.com/MrWong99/voiceselect/internal/variant"
)

// Submission is a parsed page result.
type Submission struct {
	// Dismissed is set when the page closed without a submission.
	Dismissed bool

	// Records holds every well-formed entity=tag pair in page order.
	Records []override.Record

	// Malformed lists raw records that did not split into exactly two
	// fields.
	Malformed []string
}

// ParseSubmission decodes lastURL into records. The text after origin is
// percent-decoded leniently (see [decodeLossy]), split on delim, and
// the element after the final delimiter is discarded. Unknown tags are
// accepted as [variant.Eng] and marked anomalous.
func ParseSubmission(lastURL, origin, delim string) (Submission, error) {
	rest, ok := strings.CutPrefix(lastURL, origin)
	if !ok {
		return Submission{}, fmt.Errorf("%w: %q", ErrForeignURL, lastURL)
	}
	if rest == "" {
		return Submission{Dismissed: true}, nil
	}

	parts := strings.Split(decodeLossy(rest), delim)
	parts = parts[:len(parts)-1]

	var sub Submission
	for _, raw := range parts {
		fields := strings.Split(raw, "=")
		if len(fields) != 2 {
			slog.Warn("malformed submission record skipped", "record", raw)
			sub.Malformed = append(sub.Malformed, raw)
			continue
		}

		rec := override.Record{Entity: fields[0]}
		v, known := variant.Parse(fields[1])
		if !known {
			slog.Warn("unknown variant tag, using fallback",
				"entity", fields[0], "tag", fields[1], "fallback", v)
			rec.Anomalous = true
		}
		rec.Variant = v
		sub.Records = append(sub.Records, rec)
	}
	return sub, nil
}

// decodeLossy decodes every valid %XX escape in s and copies any other '%'
// through unchanged. Byte sequences that are not valid UTF-8 after decoding
// become U+FFFD.
func decodeLossy(s string) string {
	if !strings.Contains(s, "%") {
		return strings.ToValidUTF8(s, "\uFFFD")
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD")
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
