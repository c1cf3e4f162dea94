package modelcore

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ModelId names a registered model: a 128-bit UUID plus a 16-bit
// version. It is a value type — comparable with ==, usable as a map
// key — per spec.md §4.7.
type ModelId struct {
	ID      uuid.UUID
	Version uint16
}

// NewModelId generates a fresh random ModelId at the given version.
func NewModelId(version uint16) ModelId {
	return ModelId{ID: uuid.New(), Version: version}
}

// String renders "<uuid>/v<version>", used for log correlation and
// otel attributes.
func (m ModelId) String() string {
	return fmt.Sprintf("%s/v%d", m.ID, m.Version)
}

type modelIdJSON struct {
	ModelID      string `json:"model_id"`
	ModelVersion uint16 `json:"model_version"`
}

// MarshalJSON renders the {"model_id": "<uuid>", "model_version": n}
// wire shape of spec.md §6.
func (m ModelId) MarshalJSON() ([]byte, error) {
	return json.Marshal(modelIdJSON{ModelID: m.ID.String(), ModelVersion: m.Version})
}

// UnmarshalJSON parses the {"model_id": "<uuid>", "model_version": n}
// wire shape of spec.md §6.
func (m *ModelId) UnmarshalJSON(data []byte) error {
	var parsed modelIdJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("modelcore: ModelId: %w", err)
	}
	id, err := uuid.Parse(parsed.ModelID)
	if err != nil {
		return fmt.Errorf("modelcore: ModelId: invalid model_id: %w", err)
	}
	m.ID = id
	m.Version = parsed.ModelVersion
	return nil
}
