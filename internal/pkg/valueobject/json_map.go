// Package valueobject holds small value types shared across layers. JSONMap
// backs the jsonb metadata columns on refresh-token rows.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ErrScanValueNotBytes indicates a database value in a shape Scan cannot read.
var ErrScanValueNotBytes = errors.New("valueobject: jsonmap scan value is not []byte")

// JSONMap is a JSON object that round-trips through a jsonb column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (j JSONMap) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan implements sql.Scanner. A NULL column becomes an empty, usable map
// rather than a nil one, so callers can Set without checking.
func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = JSONMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case json.RawMessage:
		raw = []byte(v)
	case map[string]any:
		// pgx can hand jsonb over already decoded.
		*j = JSONMap(v)
		return nil
	default:
		return ErrScanValueNotBytes
	}

	var decoded JSONMap
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}

	*j = decoded
	return nil
}

// Set stores value under key, replacing any existing entry.
func (j JSONMap) Set(key string, value any) {
	j[key] = value
}

// SetIfAbsent stores value only when key is not already present.
func (j JSONMap) SetIfAbsent(key string, value any) {
	if _, exists := j[key]; !exists {
		j[key] = value
	}
}

// Get returns the raw value, nil when absent.
func (j JSONMap) Get(key string) any {
	return j[key]
}

// Has reports whether key is present.
func (j JSONMap) Has(key string) bool {
	_, ok := j[key]
	return ok
}

// GetString returns the value as a string, "" when absent or another type.
func (j JSONMap) GetString(key string) string {
	v, _ := j[key].(string)
	return v
}

// GetInt returns the value as an int. JSON numbers decode as float64, so
// both representations are accepted.
func (j JSONMap) GetInt(key string) int {
	switch v := j[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetInt64 returns the value as an int64, accepting float64 like GetInt.
func (j JSONMap) GetInt64(key string) int64 {
	switch v := j[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// GetBool returns the value as a bool, false when absent or another type.
func (j JSONMap) GetBool(key string) bool {
	v, _ := j[key].(bool)
	return v
}
