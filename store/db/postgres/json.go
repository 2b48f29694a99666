package postgres

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// marshalJSON encodes v for a jsonb column, mapping nil maps to "{}".
func marshalJSON(v any) ([]byte, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal jsonb value")
	}
	if string(buf) == "null" {
		buf = []byte("{}")
	}
	return buf, nil
}

// unmarshalJSON decodes a jsonb column into out, treating empty input
// as the zero value.
func unmarshalJSON(buf []byte, out any) error {
	if len(buf) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(buf, out), "failed to unmarshal jsonb value")
}
