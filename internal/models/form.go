package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FormValue is a form field kept as text. It decodes from a JSON string or a JSON number
// so numeric fields are parsed by the validation rules rather than by the decoder.
type FormValue string

// UnmarshalJSON implements json.Unmarshaler
func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("form value must be a string or a number: %w", err)
	}
	*v = FormValue(n.String())
	return nil
}

// String returns the trimmed text
func (v FormValue) String() string {
	return strings.TrimSpace(string(v))
}

// Empty reports whether the value is blank
func (v FormValue) Empty() bool {
	return v.String() == ""
}
