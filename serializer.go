package sagabox

import (
	"encoding/json"
	"fmt"
)

// Serializer converts command bodies to and from opaque payloads. The store
// never inspects payloads; the flusher deserializes them just before handing
// an envelope to the delivery channel.
type Serializer interface {
	// Serialize encodes a command body into a payload.
	Serialize(command any) ([]byte, error)
	// Deserialize decodes a payload back into a command body.
	Deserialize(payload []byte) (any, error)
}

// RawJSON is a Serializer that keeps bodies as JSON. Raw bodies
// (json.RawMessage or []byte) pass through after validation; anything else is
// marshaled with encoding/json. Deserialize yields json.RawMessage.
type RawJSON struct{}

// Serialize implements Serializer.
func (RawJSON) Serialize(command any) ([]byte, error) {
	switch body := command.(type) {
	case json.RawMessage:
		return validateJSON(body)
	case []byte:
		return validateJSON(body)
	default:
		payload, err := json.Marshal(command)
		if err != nil {
			return nil, fmt.Errorf("sagabox: marshal command: %w", err)
		}

		return payload, nil
	}
}

// Deserialize implements Serializer.
func (RawJSON) Deserialize(payload []byte) (any, error) {
	if !json.Valid(payload) {
		return nil, ErrInvalidPayload
	}

	out := make(json.RawMessage, len(payload))
	copy(out, payload)

	return out, nil
}

func validateJSON(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrBodyRequired
	}
	if !json.Valid(payload) {
		return nil, ErrInvalidPayload
	}

	return payload, nil
}
