package controller

import (
	"encoding/json"
	"fmt"
)

func (c controller) unmarshalInput(payload json.RawMessage, dst any) error {
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		return fmt.Errorf("validation failed: %v", validationErrors)
	}

	return nil
}
