package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ErrMissingField is returned by Validate when a required field is absent from a payload.
var ErrMissingField = errors.New("missing required field")

// Envelope wraps every REST response: the payload lives under "data".
// A missing "data" is treated as an empty list.
type Envelope struct {
	Data json.RawMessage `json:"data"`
}

// Empty reports whether the envelope carries no payload at all.
func (e Envelope) Empty() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) == 0 || bytes.Equal(d, []byte("null"))
}

// FlexString accepts a JSON string, number or null and keeps its text form.
// The backend is not consistent about the type of client_id.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// firstInt64 returns the first non-nil candidate.
func firstInt64(candidates ...*int64) int64 {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return 0
}

func firstString(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
