package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pensaconnect/connect/internal/apperror"
)

// =========================================================================
// HELPERS
// =========================================================================

// mustMapping parses a JSON object the same way the HTTP client does
// (UseNumber), so the tests exercise the json.Number path.
func mustMapping(t *testing.T, raw string) Mapping {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m Mapping
	require.NoError(t, dec.Decode(&m))
	return m
}

// minimal returns a mapping holding only the mandatory keys.
func minimal() Mapping {
	return Mapping{
		"id":         int64(1),
		"user_id":    int64(7),
		"title":      "Need strength",
		"content":    "Please pray for my family",
		"created_at": "2024-03-01T08:00:00Z",
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339Nano, s)
	require.NoError(t, err)
	return tm
}

// =========================================================================
// CONSTRUCTION
// =========================================================================

func TestNew_Defaults(t *testing.T) {
	created := mustTime(t, "2024-03-01T08:00:00Z")
	p := New(1, 7, "title", "content", created)

	assert.Equal(t, int64(1), p.ID())
	assert.Equal(t, int64(7), p.UserID())
	assert.False(t, p.IsAnonymous())
	assert.Equal(t, StatusPending, p.Status())
	assert.Equal(t, 0, p.PrayersCount())
	assert.False(t, p.HasPrayed())

	_, ok := p.Username()
	assert.False(t, ok, "username should be absent")
	_, ok = p.UpdatedAt()
	assert.False(t, ok, "updatedAt should be absent")
}

func TestNew_NoValidation(t *testing.T) {
	// Negative counts and empty strings are the server's problem, not ours.
	p := New(1, 2, "", "", time.Time{}, WithPrayersCount(-3), WithStatus("weird"))

	assert.Equal(t, -3, p.PrayersCount())
	assert.Equal(t, Status("weird"), p.Status())
}

func TestNew_Options(t *testing.T) {
	created := mustTime(t, "2024-03-01T08:00:00Z")
	updated := mustTime(t, "2024-03-02T08:00:00Z")

	p := New(1, 7, "t", "c", created,
		WithUsername("grace"),
		WithUserProfilePic("https://cdn.example.com/grace.png"),
		WithAnonymous(true),
		WithStatus(StatusAnswered),
		WithPrayersCount(12),
		WithCategory("Family"),
		WithUpdatedAt(updated),
		WithHasPrayed(true),
	)

	username, _ := p.Username()
	pic, _ := p.UserProfilePic()
	category, _ := p.Category()
	gotUpdated, ok := p.UpdatedAt()

	assert.Equal(t, "grace", username)
	assert.Equal(t, "https://cdn.example.com/grace.png", pic)
	assert.True(t, p.IsAnonymous())
	assert.Equal(t, StatusAnswered, p.Status())
	assert.Equal(t, 12, p.PrayersCount())
	assert.Equal(t, "Family", category)
	require.True(t, ok)
	assert.True(t, gotUpdated.Equal(updated))
	assert.True(t, p.HasPrayed())
}

// =========================================================================
// DECODE SINGLE
// =========================================================================

func TestFromTransport_ExampleScenario(t *testing.T) {
	m := mustMapping(t, `{"id":1,"user_id":7,"title":"Need strength","content":"Please pray for my family","created_at":"2024-03-01T08:00:00Z"}`)

	p, err := FromTransport(m)
	require.NoError(t, err)

	assert.Equal(t, int64(1), p.ID())
	assert.Equal(t, int64(7), p.UserID())
	assert.Equal(t, "Need strength", p.Title())
	assert.Equal(t, "Please pray for my family", p.Content())
	assert.Equal(t, StatusPending, p.Status())
	assert.Equal(t, 0, p.PrayersCount())
	assert.False(t, p.IsAnonymous())
	assert.False(t, p.HasPrayed())

	_, ok := p.Username()
	assert.False(t, ok, "username should be absent")
	_, ok = p.UpdatedAt()
	assert.False(t, ok, "updatedAt should be absent")
}

func TestFromTransport_AbsentAndNullAreTheSame(t *testing.T) {
	withNulls := minimal()
	for _, k := range []string{"username", "user_profile_pic", "is_anonymous", "status",
		"prayers_count", "category", "updated_at", "has_prayed"} {
		withNulls[k] = nil
	}

	fromAbsent, err := FromTransport(minimal())
	require.NoError(t, err)
	fromNull, err := FromTransport(withNulls)
	require.NoError(t, err)

	assert.True(t, fromAbsent.Equal(fromNull))
	assert.Equal(t, StatusPending, fromNull.Status())
}

func TestFromTransport_MissingMandatory(t *testing.T) {
	for _, key := range []string{"id", "user_id", "title", "content", "created_at"} {
		t.Run(key, func(t *testing.T) {
			m := minimal()
			delete(m, key)

			p, err := FromTransport(m)

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrShape), "want ErrShape, got %v", err)
			assert.Equal(t, PrayerRequest{}, p, "no partial record on failure")

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, key, appErr.Field)
		})
	}
}

func TestFromTransport_NullMandatory(t *testing.T) {
	m := minimal()
	m["title"] = nil

	_, err := FromTransport(m)
	assert.ErrorIs(t, err, apperror.ErrShape)
}

func TestFromTransport_WrongTypes(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"id as string", "id", "1"},
		{"id as fraction", "id", 1.5},
		{"id out of int64 range", "id", json.Number("1e30")},
		{"id below int64 range", "id", json.Number("-9223372036854775809")},
		{"id at int64 min with fraction", "id", json.Number("-9223372036854775808.5")},
		{"id as fractional json.Number", "id", json.Number("7.25")},
		{"user_id as bool", "user_id", true},
		{"title as number", "title", json.Number("3")},
		{"content as object", "content", map[string]any{"text": "x"}},
		{"created_at as number", "created_at", int64(1709280000)},
		{"is_anonymous as string", "is_anonymous", "yes"},
		{"has_prayed as number", "has_prayed", 1},
		{"prayers_count as string", "prayers_count", "3"},
		{"prayers_count as fraction", "prayers_count", json.Number("2.5")},
		{"status as number", "status", 2},
		{"username as number", "username", 42},
		{"category as list", "category", []any{"a"}},
		{"updated_at as bool", "updated_at", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := minimal()
			m[tt.key] = tt.value

			p, err := FromTransport(m)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrShape)
			assert.Equal(t, PrayerRequest{}, p)
		})
	}
}

func TestFromTransport_NilMapping(t *testing.T) {
	_, err := FromTransport(nil)
	assert.ErrorIs(t, err, apperror.ErrShape)
}

func TestFromTransport_IntegerRepresentations(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"json.Number", json.Number("42")},
		{"integral json.Number with fraction", json.Number("42.0")},
		{"float64", float64(42)},
		{"int", 42},
		{"int32", int32(42)},
		{"int64", int64(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := minimal()
			m["id"] = tt.value
			m["prayers_count"] = tt.value

			p, err := FromTransport(m)
			require.NoError(t, err)
			assert.Equal(t, int64(42), p.ID())
			assert.Equal(t, 42, p.PrayersCount())
		})
	}
}

func TestFromTransport_LargeID(t *testing.T) {
	// 2^53 + 1 cannot be represented as float64; json.Number keeps it exact.
	m := mustMapping(t, `{"id":9007199254740993,"user_id":7,"title":"t","content":"c","created_at":"2024-03-01T08:00:00Z"}`)

	p, err := FromTransport(m)
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), p.ID())
}

func TestFromTransport_ExactNumberForms(t *testing.T) {
	tests := []struct {
		name  string
		value json.Number
		want  int64
	}{
		{"above 2^53 with zero fraction", "9007199254740993.0", 9007199254740993},
		{"exponent", "1e3", 1000},
		{"int64 max with zero fraction", "9223372036854775807.0", math.MaxInt64},
		{"int64 min with zero fraction", "-9223372036854775808.0", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := minimal()
			m["id"] = tt.value

			p, err := FromTransport(m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.ID())
		})
	}
}

// =========================================================================
// DATES
// =========================================================================

func TestFromTransport_CreatedAtInstant(t *testing.T) {
	m := minimal()
	m["created_at"] = "2024-01-15T10:30:00Z"

	p, err := FromTransport(m)
	require.NoError(t, err)

	want := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
	assert.True(t, p.CreatedAt().Equal(want), "CreatedAt = %v, want %v", p.CreatedAt(), want)
}

func TestFromTransport_DateFormats(t *testing.T) {
	want := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"RFC 3339 UTC", "2024-01-15T10:30:00Z", want},
		{"RFC 3339 offset", "2024-01-15T12:30:00+02:00", want},
		{"python isoformat with offset", "2024-01-15T10:30:00+00:00", want},
		{"naive isoformat is UTC", "2024-01-15T10:30:00", want},
		{"naive isoformat with microseconds", "2024-01-15T10:30:00.250000", want.Add(250 * time.Millisecond)},
		{"space separator", "2024-01-15 10:30:00", want},
		{"date only", "2024-01-15", time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := minimal()
			m["created_at"] = tt.input
			m["updated_at"] = tt.input

			p, err := FromTransport(m)
			require.NoError(t, err)

			assert.True(t, p.CreatedAt().Equal(tt.want), "CreatedAt = %v, want %v", p.CreatedAt(), tt.want)
			updated, ok := p.UpdatedAt()
			require.True(t, ok)
			assert.True(t, updated.Equal(tt.want))
		})
	}
}

func TestFromTransport_BadDates(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"bad created_at", "created_at"},
		{"bad updated_at", "updated_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := minimal()
			m[tt.key] = "last tuesday"

			p, err := FromTransport(m)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrParse)
			assert.NotErrorIs(t, err, apperror.ErrShape)
			assert.Equal(t, PrayerRequest{}, p)

			var pe *time.ParseError
			assert.True(t, errors.As(err, &pe), "cause should be the time.ParseError")
		})
	}
}

// =========================================================================
// ENCODE / ROUND TRIP
// =========================================================================

func TestToTransport_AllKeysPresent(t *testing.T) {
	p, err := FromTransport(minimal())
	require.NoError(t, err)

	m := p.ToTransport()

	assert.Len(t, m, 13)
	assert.Nil(t, m["updated_at"])
	assert.Nil(t, m["username"])
	assert.Nil(t, m["user_profile_pic"])
	assert.Nil(t, m["category"])
	assert.Equal(t, "pending", m["status"])
	assert.Equal(t, 0, m["prayers_count"])
	assert.Equal(t, false, m["is_anonymous"])
	assert.Equal(t, false, m["has_prayed"])
	assert.Equal(t, "2024-03-01T08:00:00Z", m["created_at"])
}

func TestRoundTrip_FullMapping(t *testing.T) {
	raw := `{
		"id": 3,
		"user_id": 11,
		"username": "grace",
		"user_profile_pic": "https://cdn.example.com/g.png",
		"title": "Healing",
		"content": "For my mother's surgery",
		"is_anonymous": true,
		"status": "answered",
		"prayers_count": 17,
		"category": "Health",
		"created_at": "2024-01-15T10:30:00Z",
		"updated_at": "2024-02-01T09:15:30.5Z",
		"has_prayed": true
	}`

	p, err := FromTransport(mustMapping(t, raw))
	require.NoError(t, err)

	out, err := json.Marshal(p.ToTransport())
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestRoundTrip_MinimalMappingIsNormalized(t *testing.T) {
	raw := `{"id":1,"user_id":7,"title":"Need strength","content":"Please pray for my family","created_at":"2024-03-01T08:00:00Z"}`
	normalized := `{
		"id": 1,
		"user_id": 7,
		"username": null,
		"user_profile_pic": null,
		"title": "Need strength",
		"content": "Please pray for my family",
		"is_anonymous": false,
		"status": "pending",
		"prayers_count": 0,
		"category": null,
		"created_at": "2024-03-01T08:00:00Z",
		"updated_at": null,
		"has_prayed": false
	}`

	p, err := FromTransport(mustMapping(t, raw))
	require.NoError(t, err)

	out, err := json.Marshal(p.ToTransport())
	require.NoError(t, err)
	assert.JSONEq(t, normalized, string(out))
}

func TestRoundTrip_Record(t *testing.T) {
	created := mustTime(t, "2024-01-15T10:30:00.123456789+03:00")
	updated := mustTime(t, "2024-01-16T00:00:00Z")

	tests := []struct {
		name string
		rec  PrayerRequest
	}{
		{"defaults only", New(1, 2, "t", "c", created)},
		{"everything set", New(1, 2, "t", "c", created,
			WithUsername("u"),
			WithUserProfilePic("p"),
			WithAnonymous(true),
			WithStatus(StatusAnswered),
			WithPrayersCount(5),
			WithCategory("General"),
			WithUpdatedAt(updated),
			WithHasPrayed(true),
		)},
		{"empty optional strings are kept", New(1, 2, "t", "c", created,
			WithUsername(""),
			WithCategory(""),
		)},
		{"last representable year", New(1, 2, "t", "c",
			time.Date(9999, time.December, 31, 23, 59, 59, 999999999, time.UTC),
			WithUpdatedAt(time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC)),
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			back, err := FromTransport(tt.rec.ToTransport())
			require.NoError(t, err)
			assert.True(t, back.Equal(tt.rec), "round trip changed the record:\n got  %v\n want %v", back.ToTransport(), tt.rec.ToTransport())
		})
	}
}

func TestRoundTrip_YearOutsideRFC3339Range(t *testing.T) {
	tests := []struct {
		name string
		rec  PrayerRequest
	}{
		{"created_at after 9999", New(1, 2, "t", "c", time.Date(10000, time.January, 1, 0, 0, 0, 0, time.UTC))},
		{"updated_at before 0000", New(1, 2, "t", "c", time.Unix(0, 0).UTC(),
			WithUpdatedAt(time.Date(-1, time.January, 1, 0, 0, 0, 0, time.UTC)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromTransport(tt.rec.ToTransport())
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrParse), "got %v", err)
		})
	}
}

func TestRoundTrip_AbsentUpdatedAtStaysAbsent(t *testing.T) {
	p, err := FromTransport(minimal())
	require.NoError(t, err)

	back, err := FromTransport(p.ToTransport())
	require.NoError(t, err)

	_, ok := back.UpdatedAt()
	assert.False(t, ok)
	assert.Nil(t, back.ToTransport()["updated_at"])
}

func TestToTransport_NeverReappliesDefaults(t *testing.T) {
	// An empty status is not "absent": it is encoded as-is.
	p := New(1, 2, "t", "c", time.Unix(0, 0).UTC(), WithStatus(""))

	assert.Equal(t, "", p.ToTransport()["status"])
}

// =========================================================================
// JSON
// =========================================================================

func TestJSON_MarshalUnmarshal(t *testing.T) {
	p := New(5, 9, "Job", "Interview tomorrow", mustTime(t, "2024-05-01T12:00:00Z"),
		WithCategory("Work"))

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var back PrayerRequest
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(p))
}

func TestJSON_UnmarshalSlice(t *testing.T) {
	raw := `[
		{"id":1,"user_id":1,"title":"a","content":"a","created_at":"2024-01-01T00:00:00Z"},
		{"id":2,"user_id":1,"title":"b","content":"b","created_at":"2024-01-02T00:00:00Z","status":"answered"}
	]`

	var list []PrayerRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &list))
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[1].ID())
	assert.Equal(t, StatusAnswered, list[1].Status())
}

func TestJSON_UnmarshalErrors(t *testing.T) {
	var p PrayerRequest

	err := json.Unmarshal([]byte(`{"id":1}`), &p)
	assert.ErrorIs(t, err, apperror.ErrShape)

	err = json.Unmarshal([]byte(`{"id":1,"user_id":1,"title":"a","content":"a","created_at":"nope"}`), &p)
	assert.ErrorIs(t, err, apperror.ErrParse)
}

// =========================================================================
// DECODE BATCH
// =========================================================================

func TestFromTransportList_PreservesOrder(t *testing.T) {
	var list []Mapping
	for _, id := range []int64{30, 10, 20} {
		m := minimal()
		m["id"] = id
		list = append(list, m)
	}

	records, err := FromTransportList(list)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, int64(30), records[0].ID())
	assert.Equal(t, int64(10), records[1].ID())
	assert.Equal(t, int64(20), records[2].ID())
}

func TestFromTransportList_Empty(t *testing.T) {
	records, err := FromTransportList(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFromTransportList_FailsWholeBatch(t *testing.T) {
	bad := minimal()
	delete(bad, "content")

	records, err := FromTransportList([]Mapping{minimal(), bad, minimal()})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrShape)
	assert.Nil(t, records, "no partial list on failure")

	// The element's own error is surfaced unmodified.
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "content", appErr.Field)
}

// =========================================================================
// COPY-WITH-OVERRIDES
// =========================================================================

func TestWithUpdates_Immutability(t *testing.T) {
	r := New(1, 7, "t", "c", mustTime(t, "2024-03-01T08:00:00Z"), WithPrayersCount(5))

	updated := r.WithUpdates(Update{PrayersCount: Ptr(6)})

	assert.Equal(t, 6, updated.PrayersCount())
	assert.Equal(t, 5, r.PrayersCount(), "original must not change")
	assert.Equal(t, r.ID(), updated.ID())
	assert.Equal(t, r.UserID(), updated.UserID())
	assert.True(t, r.CreatedAt().Equal(updated.CreatedAt()))
}

func TestWithUpdates_EmptyUpdateKeepsEverything(t *testing.T) {
	r := New(1, 7, "t", "c", mustTime(t, "2024-03-01T08:00:00Z"),
		WithUsername("grace"), WithCategory("Family"), WithUpdatedAt(mustTime(t, "2024-03-02T08:00:00Z")))

	assert.True(t, Update{}.IsZero())
	assert.True(t, r.WithUpdates(Update{}).Equal(r))
}

func TestWithUpdates_AllowListedFields(t *testing.T) {
	r := New(1, 7, "old title", "old content", mustTime(t, "2024-03-01T08:00:00Z"),
		WithUsername("grace"))

	u := Update{
		PrayersCount:   Ptr(9),
		Status:         Ptr(StatusAnswered),
		HasPrayed:      Ptr(true),
		UserProfilePic: Ptr("https://cdn.example.com/new.png"),
		Title:          Ptr("new title"),
		Content:        Ptr("new content"),
		IsAnonymous:    Ptr(true),
		Category:       Ptr("Thanksgiving"),
	}
	got := r.WithUpdates(u)

	pic, _ := got.UserProfilePic()
	category, _ := got.Category()
	username, _ := got.Username()

	assert.Equal(t, 9, got.PrayersCount())
	assert.Equal(t, StatusAnswered, got.Status())
	assert.True(t, got.HasPrayed())
	assert.Equal(t, "https://cdn.example.com/new.png", pic)
	assert.Equal(t, "new title", got.Title())
	assert.Equal(t, "new content", got.Content())
	assert.True(t, got.IsAnonymous())
	assert.Equal(t, "Thanksgiving", category)

	// Fields outside the allow-list are untouched.
	assert.Equal(t, "grace", username)
	_, hasUpdated := got.UpdatedAt()
	assert.False(t, hasUpdated)
}

func TestWithUpdates_DoesNotAliasCallerPointers(t *testing.T) {
	r := New(1, 7, "t", "c", time.Unix(0, 0).UTC())
	category := "Family"

	got := r.WithUpdates(Update{Category: &category})
	category = "changed after the fact"

	c, _ := got.Category()
	assert.Equal(t, "Family", c)
}

func TestUpdate_TransportKeys(t *testing.T) {
	tests := []struct {
		name string
		u    Update
		want []string
	}{
		{"empty", Update{}, nil},
		{"server-computed fields only", Update{PrayersCount: Ptr(1), HasPrayed: Ptr(true), UserProfilePic: Ptr("x")}, nil},
		{"writable fields", Update{Status: Ptr(StatusAnswered), Title: Ptr("t")}, []string{"title", "status"}},
		{"all writable", Update{
			Title: Ptr("t"), Content: Ptr("c"), IsAnonymous: Ptr(false), Category: Ptr("x"), Status: Ptr(StatusPending),
		}, []string{"title", "content", "is_anonymous", "category", "status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.u.TransportKeys())
		})
	}
}

func TestMapping_Pick(t *testing.T) {
	m := Mapping{"title": "t", "content": "c", "category": nil}

	got := m.Pick("title", "category", "missing")

	assert.Equal(t, Mapping{"title": "t", "category": nil}, got)
	assert.Len(t, m, 3, "Pick must not modify the source")
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusAnswered.Valid())
	assert.False(t, Status("archived").Valid())
	assert.False(t, Status("").Valid())
}

// =========================================================================
// CONCURRENCY
// =========================================================================

// Run with -race: decoding, encoding and updating share no mutable state.
func TestConcurrentUse(t *testing.T) {
	base, err := FromTransport(minimal())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updated := base.WithUpdates(Update{PrayersCount: Ptr(i)})
			back, err := FromTransport(updated.ToTransport())
			assert.NoError(t, err)
			assert.Equal(t, i, back.PrayersCount())
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, base.PrayersCount())
}
