package protocol

import (
	"encoding/json"
	"fmt"
)

// Decode parses the envelope of a raw text frame.
func Decode(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if msg.Event == "" {
		return Message{}, fmt.Errorf("%w: missing event name", ErrMalformedPayload)
	}
	return msg, nil
}

// Bind unmarshals the payload into v and runs its validation. Wrong field
// types surface as ErrMalformedPayload, same as missing required fields.
func (m Message) Bind(v interface{ Validate() error }) error {
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, v); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	}
	return v.Validate()
}

// Encode wraps a payload in the envelope and serializes the frame.
func Encode(event string, data interface{}) ([]byte, error) {
	msg := Message{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s: %w", event, err)
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}
