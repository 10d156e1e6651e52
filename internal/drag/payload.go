package drag

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MIMEType tags drag data carrying a Payload.
const MIMEType = "application/x-docktile-tab"

// Payload identifies the tab being dragged and the group it came from.
type Payload struct {
	ViewID        string `json:"viewId"`
	SourceGroupID string `json:"sourceGroupId"`
}

// ErrEmptyPayload is returned when drag data names no view.
var ErrEmptyPayload = errors.New("drag payload has no view id")

// Encode returns the wire form of p.
func (p Payload) Encode() ([]byte, error) {
	if p.ViewID == "" {
		return nil, ErrEmptyPayload
	}
	return json.Marshal(p)
}

// UnmarshalJSON accepts numeric view ids as well as strings.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw struct {
		ViewID        json.RawMessage `json:"viewId"`
		SourceGroupID string          `json:"sourceGroupId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.SourceGroupID = raw.SourceGroupID
	p.ViewID = ""
	id := bytes.TrimSpace(raw.ViewID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
	case id[0] == '"':
		if err := json.Unmarshal(id, &p.ViewID); err != nil {
			return fmt.Errorf("viewId: %w", err)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return fmt.Errorf("viewId: %w", err)
		}
		p.ViewID = n.String()
	}
	return nil
}

// DecodePayload parses drag data in wire form.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("decode drag payload: %w", err)
	}
	if p.ViewID == "" {
		return Payload{}, ErrEmptyPayload
	}
	return p, nil
}
