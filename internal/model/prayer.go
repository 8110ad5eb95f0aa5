// Package model defines the data structures exchanged with the PensaConnect API.
//
// PrayerRequest is a VALUE OBJECT: all of its fields are unexported, so the only
// ways to obtain one are New (construction), FromTransport (decoding a server
// response) and WithUpdates (copy-with-overrides). Nothing outside this package
// can reassign a field of an existing record.
//
// Passing PrayerRequest by value is cheap (a handful of words) and makes every
// "change" produce a new record, which is what the screens expect.
package model

import "time"

// Status is the lifecycle tag of a prayer request.
// This layer does not enforce transitions between statuses; the server does.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAnswered Status = "answered"
)

// Valid reports whether s is one of the statuses the API knows about.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusAnswered
}

// PrayerRequest is one user-submitted prayer request with its engagement metadata.
//
// WHY POINTERS FOR username, userProfilePic, category, updatedAt?
// These can be absent in the server's JSON (null or missing key). A nil pointer
// means "no value", which is different from an empty string or the zero time.
// The accessors return (value, ok) so callers never see the pointers themselves.
type PrayerRequest struct {
	id             int64
	userID         int64
	username       *string
	userProfilePic *string
	title          string
	content        string
	isAnonymous    bool
	status         Status
	prayersCount   int
	category       *string
	createdAt      time.Time
	updatedAt      *time.Time
	hasPrayed      bool // per viewer: did the CURRENT user pray for this request?
}

// Option sets an optional field during New.
//
// FUNCTIONAL OPTIONS:
// New takes the mandatory fields as parameters and everything else as a
// variadic list of Options. Omitted options keep their documented defaults.
//
//	p := model.New(1, 7, "Need strength", "Please pray", created,
//	    model.WithCategory("Family"),
//	    model.WithPrayersCount(3),
//	)
type Option func(*PrayerRequest)

// WithUsername sets the author's display name.
func WithUsername(username string) Option {
	return func(p *PrayerRequest) { p.username = &username }
}

// WithUserProfilePic sets the author's avatar URL.
func WithUserProfilePic(url string) Option {
	return func(p *PrayerRequest) { p.userProfilePic = &url }
}

// WithAnonymous marks the request as posted anonymously.
func WithAnonymous(anonymous bool) Option {
	return func(p *PrayerRequest) { p.isAnonymous = anonymous }
}

// WithStatus overrides the default "pending" status.
func WithStatus(status Status) Option {
	return func(p *PrayerRequest) { p.status = status }
}

// WithPrayersCount sets how many users have prayed for the request.
func WithPrayersCount(n int) Option {
	return func(p *PrayerRequest) { p.prayersCount = n }
}

// WithCategory sets the free-form category label.
func WithCategory(category string) Option {
	return func(p *PrayerRequest) { p.category = &category }
}

// WithUpdatedAt sets the last modification time.
func WithUpdatedAt(t time.Time) Option {
	return func(p *PrayerRequest) { p.updatedAt = &t }
}

// WithHasPrayed records whether the viewing user has prayed for the request.
func WithHasPrayed(prayed bool) Option {
	return func(p *PrayerRequest) { p.hasPrayed = prayed }
}

// New builds a PrayerRequest from its mandatory fields plus options.
//
// Defaults: isAnonymous=false, status="pending", prayersCount=0, hasPrayed=false,
// optional strings and updatedAt absent.
//
// New performs no validation: a negative count or an empty title is accepted.
// Validating user input is the service layer's job (and ultimately the server's).
//
// Timestamps only survive ToTransport/FromTransport when their year lies in
// 0000-9999, the range RFC 3339 can spell.
func New(id, userID int64, title, content string, createdAt time.Time, opts ...Option) PrayerRequest {
	p := PrayerRequest{
		id:        id,
		userID:    userID,
		title:     title,
		content:   content,
		status:    StatusPending,
		createdAt: createdAt,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// ID returns the server-assigned identifier of the request.
func (p PrayerRequest) ID() int64 { return p.id }

// UserID returns the identifier of the author.
func (p PrayerRequest) UserID() int64 { return p.userID }

// Title returns the request's headline.
func (p PrayerRequest) Title() string { return p.title }

// Content returns the request's body text.
func (p PrayerRequest) Content() string { return p.content }

// IsAnonymous reports whether the author asked to stay hidden.
func (p PrayerRequest) IsAnonymous() bool { return p.isAnonymous }

// Status returns the lifecycle status, "pending" unless set otherwise.
func (p PrayerRequest) Status() Status { return p.status }

// PrayersCount returns how many users have prayed for the request.
func (p PrayerRequest) PrayersCount() int { return p.prayersCount }

// CreatedAt returns the creation instant.
func (p PrayerRequest) CreatedAt() time.Time { return p.createdAt }

// HasPrayed reports whether the viewing user has prayed for the request.
func (p PrayerRequest) HasPrayed() bool { return p.hasPrayed }

// Username returns the author's display name, if the server sent one.
// Screens must not show it when IsAnonymous is true.
func (p PrayerRequest) Username() (string, bool) { return deref(p.username) }

// UserProfilePic returns the author's avatar URL, if the server sent one.
func (p PrayerRequest) UserProfilePic() (string, bool) { return deref(p.userProfilePic) }

// Category returns the category label, if one was set.
func (p PrayerRequest) Category() (string, bool) { return deref(p.category) }

// UpdatedAt returns the last modification time, if the request was ever edited.
func (p PrayerRequest) UpdatedAt() (time.Time, bool) {
	if p.updatedAt == nil {
		return time.Time{}, false
	}
	return *p.updatedAt, true
}

// Update is the sparse set of overrides accepted by WithUpdates.
// A nil field means "keep the current value".
//
// Only these eight fields can change. id, userId, createdAt and updatedAt are
// deliberately absent, so there is no way to express an override for them.
type Update struct {
	PrayersCount   *int
	Status         *Status
	HasPrayed      *bool
	UserProfilePic *string
	Title          *string
	Content        *string
	IsAnonymous    *bool
	Category       *string
}

// IsZero reports whether the update overrides nothing.
func (u Update) IsZero() bool {
	return u == Update{}
}

// TransportKeys lists the snake_case keys of the overridden fields that the
// API accepts in a PATCH body. prayersCount, hasPrayed and userProfilePic are
// server-computed, so they never appear here even when set.
func (u Update) TransportKeys() []string {
	var keys []string
	if u.Title != nil {
		keys = append(keys, KeyTitle)
	}
	if u.Content != nil {
		keys = append(keys, KeyContent)
	}
	if u.IsAnonymous != nil {
		keys = append(keys, KeyIsAnonymous)
	}
	if u.Category != nil {
		keys = append(keys, KeyCategory)
	}
	if u.Status != nil {
		keys = append(keys, KeyStatus)
	}
	return keys
}

// WithUpdates returns a copy of p with the fields set in u replaced.
// p itself is never modified (value receiver: we work on a copy).
func (p PrayerRequest) WithUpdates(u Update) PrayerRequest {
	if u.PrayersCount != nil {
		p.prayersCount = *u.PrayersCount
	}
	if u.Status != nil {
		p.status = *u.Status
	}
	if u.HasPrayed != nil {
		p.hasPrayed = *u.HasPrayed
	}
	if u.UserProfilePic != nil {
		p.userProfilePic = clone(u.UserProfilePic)
	}
	if u.Title != nil {
		p.title = *u.Title
	}
	if u.Content != nil {
		p.content = *u.Content
	}
	if u.IsAnonymous != nil {
		p.isAnonymous = *u.IsAnonymous
	}
	if u.Category != nil {
		p.category = clone(u.Category)
	}
	return p
}

// Equal reports whether p and o hold the same values, field by field.
// Instants are compared with time.Time.Equal, so the same moment expressed in
// two time zones is considered equal.
func (p PrayerRequest) Equal(o PrayerRequest) bool {
	return p.id == o.id &&
		p.userID == o.userID &&
		equalPtr(p.username, o.username) &&
		equalPtr(p.userProfilePic, o.userProfilePic) &&
		p.title == o.title &&
		p.content == o.content &&
		p.isAnonymous == o.isAnonymous &&
		p.status == o.status &&
		p.prayersCount == o.prayersCount &&
		equalPtr(p.category, o.category) &&
		p.createdAt.Equal(o.createdAt) &&
		equalTime(p.updatedAt, o.updatedAt) &&
		p.hasPrayed == o.hasPrayed
}

// Ptr returns a pointer to v. Handy for building an Update literal:
//
//	p.WithUpdates(model.Update{PrayersCount: model.Ptr(6)})
func Ptr[T any](v T) *T {
	return &v
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// clone copies the pointee so the record never shares memory with the caller.
func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
