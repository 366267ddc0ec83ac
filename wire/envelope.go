package wire

import (
	"errors"

	"github.com/goccy/go-json"
)

// Request is the command envelope carried in every framed message:
// a short opaque command code and a command-specific payload object.
// Responses are free-form JSON decided entirely by the handler; there is
// no response envelope.
type Request struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

var ErrEmptyCommand = errors.New("wire: empty command code")

// EncodeRequest marshals a command and payload into envelope bytes ready
// for Send. The payload may be any JSON-marshalable value; nil encodes as
// an empty object so handlers can always address payload fields.
func EncodeRequest(command string, payload any) ([]byte, error) {
	if command == "" {
		return nil, ErrEmptyCommand
	}
	if payload == nil {
		payload = struct{}{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Request{Command: command, Payload: raw})
}

// DecodeRequest parses envelope bytes. A decode failure here is the
// "malformed JSON" case: the dispatcher logs it and drops the connection
// without a response.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// ErrorResponse is the structured business/validation failure shape.
// Handlers return it instead of raising so the dispatcher thread never
// dies on bad input.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorBody encodes an ErrorResponse carrying msg verbatim. Encoding a
// flat string map cannot fail, so the bytes are returned directly.
func ErrorBody(msg string) []byte {
	b, _ := json.Marshal(ErrorResponse{Error: msg})
	return b
}
