package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"gitlab.com/tozd/go/errors"
)

const TrailerPrefix = "//# sourceMappingURL=data:application/json;base64,"

var ErrNoTrailer = errors.Base("no inline source map")

// AppendTrailer appends the map of code as an inline data URL comment.
func AppendTrailer(code string, doc *Document) (string, error) {
	payload, err := doc.Marshal()
	if err != nil {
		return "", err
	}
	return code + "\n" + TrailerPrefix + base64.StdEncoding.EncodeToString(payload), nil
}

// ParseTrailer splits generated content into its code and the decoded inline
// map.
func ParseTrailer(content string) (string, *Document, error) {
	i := strings.LastIndex(content, "\n"+TrailerPrefix)
	if i < 0 {
		return content, nil, errors.WithStack(ErrNoTrailer)
	}

	payload := strings.TrimSpace(content[i+1+len(TrailerPrefix):])
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Errorf("decoding source map payload: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", nil, errors.Errorf("parsing source map: %w", err)
	}

	return content[:i], &doc, nil
}
