package ipfs

import (
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
)

// URIPrefix is the scheme used to reference pinned content from on-chain text.
const URIPrefix = "ipfs://"

// ParseCID validates s as a CIDv0 or CIDv1 and returns its canonical string form.
func ParseCID(s string) (string, error) {
	c, err := cid.Decode(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid cid %q: %w", s, err)
	}
	return c.String(), nil
}

// AppendReference appends an ipfs:// reference to the metadata document to description.
func AppendReference(description, c string) string {
	if c == "" {
		return description
	}
	return description + "\n\n" + URIPrefix + c
}

// ExtractCID returns the last valid ipfs:// reference found in text.
func ExtractCID(text string) (string, bool) {
	for rest := text; ; {
		idx := strings.LastIndex(rest, URIPrefix)
		if idx < 0 {
			return "", false
		}
		candidate := rest[idx+len(URIPrefix):]
		if end := strings.IndexAny(candidate, " \t\r\n\"'<>)"); end >= 0 {
			candidate = candidate[:end]
		}
		candidate = strings.TrimRight(candidate, "/.,;")
		if parsed, err := ParseCID(candidate); err == nil {
			return parsed, true
		}
		rest = rest[:idx]
	}
}
