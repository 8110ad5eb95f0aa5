package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pensaconnect/connect/internal/apperror"
)

// Transport keys. The API speaks snake_case.
const (
	KeyID             = "id"
	KeyUserID         = "user_id"
	KeyUsername       = "username"
	KeyUserProfilePic = "user_profile_pic"
	KeyTitle          = "title"
	KeyContent        = "content"
	KeyIsAnonymous    = "is_anonymous"
	KeyStatus         = "status"
	KeyPrayersCount   = "prayers_count"
	KeyCategory       = "category"
	KeyCreatedAt      = "created_at"
	KeyUpdatedAt      = "updated_at"
	KeyHasPrayed      = "has_prayed"
)

// Mapping is the loosely-typed JSON object exchanged with the server:
// string keys, dynamically-typed values (string, bool, float64/json.Number/int, nil).
type Mapping map[string]any

// Pick returns a new Mapping holding only the given keys that exist in m.
func (m Mapping) Pick(keys ...string) Mapping {
	out := make(Mapping, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out
}

// FromTransport validates m and narrows it into a PrayerRequest.
//
// DECODING RULES:
//   - id, user_id, title, content, created_at are mandatory. Missing or of the
//     wrong type → apperror.ErrShape. An unparsable created_at → apperror.ErrParse.
//   - is_anonymous, status, prayers_count, has_prayed fall back to their defaults
//     when the key is absent OR null (the API treats both the same way).
//   - username, user_profile_pic, category, updated_at stay absent when absent/null.
//   - A non-null optional value of the wrong type is still a shape error:
//     we never silently coerce.
//
// All-or-nothing: on error the zero PrayerRequest is returned, never a partial one.
func FromTransport(m Mapping) (PrayerRequest, error) {
	if m == nil {
		return PrayerRequest{}, apperror.Shape("prayer request", "mapping is null")
	}

	d := decoder{m: m}

	p := PrayerRequest{
		id:             d.requiredInt64(KeyID),
		userID:         d.requiredInt64(KeyUserID),
		username:       d.optionalString(KeyUsername),
		userProfilePic: d.optionalString(KeyUserProfilePic),
		title:          d.requiredString(KeyTitle),
		content:        d.requiredString(KeyContent),
		isAnonymous:    d.optionalBool(KeyIsAnonymous, false),
		status:         Status(d.optionalStringOr(KeyStatus, string(StatusPending))),
		prayersCount:   int(d.optionalInt64(KeyPrayersCount, 0)),
		category:       d.optionalString(KeyCategory),
		createdAt:      d.requiredTime(KeyCreatedAt),
		updatedAt:      d.optionalTime(KeyUpdatedAt),
		hasPrayed:      d.optionalBool(KeyHasPrayed, false),
	}

	if d.err != nil {
		return PrayerRequest{}, d.err
	}
	return p, nil
}

// FromTransportList decodes every element of list, preserving order.
//
// FAIL-FAST: the first element that fails to decode aborts the whole batch and
// its error is returned as-is. No partial list is ever returned.
func FromTransportList(list []Mapping) ([]PrayerRequest, error) {
	out := make([]PrayerRequest, 0, len(list))
	for _, m := range list {
		p, err := FromTransport(m)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ToTransport encodes p into the same shape FromTransport consumes.
//
// Every key is always emitted. Absent optionals become nil (JSON null); dates
// are RFC 3339 strings. Defaults are never re-applied: the current value is
// written, whatever it is. A date whose year falls outside 0000-9999 is still
// written, but FromTransport rejects it with ErrParse.
func (p PrayerRequest) ToTransport() Mapping {
	m := Mapping{
		KeyID:             p.id,
		KeyUserID:         p.userID,
		KeyUsername:       nil,
		KeyUserProfilePic: nil,
		KeyTitle:          p.title,
		KeyContent:        p.content,
		KeyIsAnonymous:    p.isAnonymous,
		KeyStatus:         string(p.status),
		KeyPrayersCount:   p.prayersCount,
		KeyCategory:       nil,
		KeyCreatedAt:      formatTime(p.createdAt),
		KeyUpdatedAt:      nil,
		KeyHasPrayed:      p.hasPrayed,
	}
	if p.username != nil {
		m[KeyUsername] = *p.username
	}
	if p.userProfilePic != nil {
		m[KeyUserProfilePic] = *p.userProfilePic
	}
	if p.category != nil {
		m[KeyCategory] = *p.category
	}
	if p.updatedAt != nil {
		m[KeyUpdatedAt] = formatTime(*p.updatedAt)
	}
	return m
}

// MarshalJSON encodes p as its transport mapping, so a PrayerRequest can be
// passed straight to json.Marshal / json.NewEncoder.
func (p PrayerRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToTransport())
}

// UnmarshalJSON decodes a JSON object through FromTransport.
//
// UseNumber keeps integers as json.Number instead of float64, so an id like
// 9007199254740993 (above 2^53) survives exactly.
func (p *PrayerRequest) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m Mapping
	if err := dec.Decode(&m); err != nil {
		return apperror.Shape("prayer request", "expected a JSON object: "+err.Error())
	}

	decoded, err := FromTransport(m)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// formatTime writes instants the way the API reads them back.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
