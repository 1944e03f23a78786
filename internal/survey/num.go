package survey

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Num is a numeric survey value that may be missing. A valid Num is always finite.
// It is the only missing representation used by standardized rows: CSV renders it as
// an empty cell, JSON as null and SQL as NULL.
type Num struct {
	V     float64
	Valid bool
}

// Missing returns the missing value.
func Missing() Num { return Num{} }

// Some wraps v, mapping NaN and ±Inf to missing.
func Some(v float64) Num {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Num{}
	}
	return Num{V: v, Valid: true}
}

// Get returns the value and whether it is present.
func (n Num) Get() (float64, bool) { return n.V, n.Valid }

// String formats the value with the shortest exact representation; missing is "".
func (n Num) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.V, 'f', -1, 64)
}

func (n Num) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.V)
}

func (n *Num) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = Missing()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decode num: %w", err)
	}
	*n = Some(v)
	return nil
}

// Value implements driver.Valuer so missing values are stored as NULL.
func (n Num) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.V, nil
}
