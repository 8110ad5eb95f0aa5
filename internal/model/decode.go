package model

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/pensaconnect/connect/internal/apperror"
)

// dateLayouts are the ISO-8601 variants accepted for created_at / updated_at,
// tried in order. The backend serialises naive UTC datetimes with Python's
// isoformat() (no offset, optional microseconds); a missing offset means UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// decoder reads typed values out of a Mapping and remembers the FIRST error.
// Once err is set every getter returns a zero value, so FromTransport can read
// all fields in one struct literal and check err once at the end.
type decoder struct {
	m   Mapping
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// lookup returns the value for key, or ok=false when the key is absent or null.
func (d *decoder) lookup(key string) (any, bool) {
	v, ok := d.m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (d *decoder) requiredInt64(key string) int64 {
	v, ok := d.lookup(key)
	if !ok {
		d.fail(apperror.Shape(key, "is required"))
		return 0
	}
	n, err := toInt64(key, v)
	if err != nil {
		d.fail(err)
	}
	return n
}

func (d *decoder) optionalInt64(key string, def int64) int64 {
	v, ok := d.lookup(key)
	if !ok {
		return def
	}
	n, err := toInt64(key, v)
	if err != nil {
		d.fail(err)
	}
	return n
}

func (d *decoder) requiredString(key string) string {
	v, ok := d.lookup(key)
	if !ok {
		d.fail(apperror.Shape(key, "is required"))
		return ""
	}
	s, isString := v.(string)
	if !isString {
		d.fail(apperror.Shape(key, fmt.Sprintf("must be a string, got %T", v)))
	}
	return s
}

func (d *decoder) optionalString(key string) *string {
	v, ok := d.lookup(key)
	if !ok {
		return nil
	}
	s, isString := v.(string)
	if !isString {
		d.fail(apperror.Shape(key, fmt.Sprintf("must be a string or null, got %T", v)))
		return nil
	}
	return &s
}

func (d *decoder) optionalStringOr(key, def string) string {
	if s := d.optionalString(key); s != nil {
		return *s
	}
	return def
}

func (d *decoder) optionalBool(key string, def bool) bool {
	v, ok := d.lookup(key)
	if !ok {
		return def
	}
	b, isBool := v.(bool)
	if !isBool {
		d.fail(apperror.Shape(key, fmt.Sprintf("must be a boolean, got %T", v)))
	}
	return b
}

func (d *decoder) requiredTime(key string) time.Time {
	s := d.requiredString(key)
	if d.err != nil {
		return time.Time{}
	}
	t, err := parseTime(key, s)
	if err != nil {
		d.fail(err)
	}
	return t
}

func (d *decoder) optionalTime(key string) *time.Time {
	s := d.optionalString(key)
	if s == nil || d.err != nil {
		return nil
	}
	t, err := parseTime(key, *s)
	if err != nil {
		d.fail(err)
		return nil
	}
	return &t
}

// toInt64 accepts every representation an integer can take in a Mapping:
//   - json.Number  (decoder with UseNumber)
//   - float64      (plain json.Unmarshal), only if it has no fractional part
//   - Go integers  (mappings built in code, e.g. by ToTransport)
func toInt64(key string, v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return floatToInt64(key, n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		// "42.0" or "1e3": exact rational arithmetic, never a float round trip.
		r, ok := new(big.Rat).SetString(n.String())
		if !ok || !r.IsInt() || !r.Num().IsInt64() {
			return 0, apperror.Shape(key, fmt.Sprintf("must be an integer, got %s", n))
		}
		return r.Num().Int64(), nil
	default:
		return 0, apperror.Shape(key, fmt.Sprintf("must be an integer, got %T", v))
	}
}

// floatToInt64 rejects fractions and anything outside [-2^63, 2^63).
func floatToInt64(key string, f float64) (int64, error) {
	if f != math.Trunc(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, apperror.Shape(key, fmt.Sprintf("must be an integer, got %v", f))
	}
	return int64(f), nil
}

func parseTime(key, s string) (time.Time, error) {
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, apperror.Parse(key, s, firstErr)
}
