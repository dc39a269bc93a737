package extract

import (
	"encoding/json"
	"fmt"

	"github.com/hyperjump/omomi/internal/models"
)

func loadJSON(content []byte) ([]*models.DocumentInput, error) {
	var v interface{}
	if err := json.Unmarshal(content, &v); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return records(v)
}
