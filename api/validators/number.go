package validators

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NumberString accepts either a JSON number or a JSON string and keeps the
// raw text. Clients send money and counts both ways.
type NumberString string

func (n *NumberString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumberString(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected number or numeric string: %w", err)
	}
	*n = NumberString(num.String())
	return nil
}

func (n NumberString) String() string {
	return string(n)
}
