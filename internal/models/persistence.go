package models

import (
	"encoding/json"
	"fmt"
)

// Encode renders the full state as an indented JSON document.
func (s *GameState) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode game state: %w", err)
	}
	return data, nil
}

// DecodeGameState parses a save document and normalizes it.
func DecodeGameState(data []byte) (*GameState, error) {
	var state GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode game state: %w", err)
	}
	state.Normalize()
	return &state, nil
}
