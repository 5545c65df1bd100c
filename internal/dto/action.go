package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAction is returned when the action discriminator is missing or unsupported.
var ErrUnknownAction = errors.New("unknown action")

type actionEnvelope struct {
	Action string `json:"action"`
}

// decodeAction reads the "action" discriminator and unmarshals body into the matching variant.
func decodeAction[T any](body []byte, variants map[string]func() T) (T, error) {
	var zero T
	var env actionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, fmt.Errorf("decode request: %w", err)
	}
	build, ok := variants[strings.ToLower(strings.TrimSpace(env.Action))]
	if !ok {
		return zero, fmt.Errorf("%w %q", ErrUnknownAction, env.Action)
	}
	target := build()
	if err := json.Unmarshal(body, target); err != nil {
		return zero, fmt.Errorf("decode %s request: %w", env.Action, err)
	}
	return target, nil
}
