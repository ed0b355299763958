package apiv1

import (
	"encoding/json"
	"fmt"
)

// CodecName is the Connect codec name, so payloads travel as application/json.
const CodecName = "json"

// JSONCodec encodes the plain Go messages of this package with encoding/json.
type JSONCodec struct{}

func (JSONCodec) Name() string {
	return CodecName
}

func (JSONCodec) Marshal(message any) ([]byte, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal(%T) > %w", message, err)
	}
	return data, nil
}

func (JSONCodec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("json.Unmarshal(%T) > %w", message, err)
	}
	return nil
}
