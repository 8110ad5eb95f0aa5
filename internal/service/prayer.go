// Package service contains the business logic layer of the client.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	CLI (presentation layer)     → parses flags, renders tables
//	Service (business layer)     → validates, decodes, orchestrates
//	Repository (transport layer) → talks HTTP to the PensaConnect API
//
// The service is the only layer that turns raw transport mappings into
// model.PrayerRequest values. The repository below it never decodes, and the
// CLI above it never sees a mapping.
//
// DEPENDENCY INJECTION:
// PrayerService takes a repository.PrayerRepository (interface), NOT an
// *httpapi.Client. Tests pass a hand-written fake (see prayer_test.go).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pensaconnect/connect/internal/apperror"
	"github.com/pensaconnect/connect/internal/model"
	"github.com/pensaconnect/connect/internal/repository"
)

// Validation constants. The lengths match the server's column sizes.
const (
	MaxTitleLength    = 200
	MaxCategoryLength = 50
	DefaultPerPage    = 20
	MaxPerPage        = 100
)

// PrayerService handles business logic for prayer requests.
type PrayerService struct {
	repo   repository.PrayerRepository
	logger *slog.Logger
}

func NewPrayerService(repo repository.PrayerRepository, logger *slog.Logger) *PrayerService {
	return &PrayerService{
		repo:   repo,
		logger: logger,
	}
}

// NewPrayer is the input for Create. Zero values mean "let the server decide":
// an empty Category becomes "General", an empty Status becomes "pending".
type NewPrayer struct {
	Title       string
	Content     string
	Category    string
	IsAnonymous bool
	Status      model.Status
}

// Get fetches and decodes one prayer request.
func (s *PrayerService) Get(ctx context.Context, id int64) (model.PrayerRequest, error) {
	m, err := s.repo.FetchOne(ctx, id)
	if err != nil {
		s.logFailure("failed to fetch prayer request", err, slog.Int64("id", id))
		return model.PrayerRequest{}, fmt.Errorf("getting prayer request %d: %w", id, err)
	}
	return s.decode(m)
}

// List fetches one page of prayer requests.
//
// PAGINATION PARAMETERS:
// - PerPage: clamped to 1-100, 0 or negative means the default of 20
// - Page: 1-based, anything below 1 becomes 1
// - Filter: "" means wall; unknown filters are rejected before any request
//
// Decoding is all-or-nothing: one malformed record fails the whole page.
func (s *PrayerService) List(ctx context.Context, opts repository.ListOptions) ([]model.PrayerRequest, error) {
	if opts.Filter == "" {
		opts.Filter = repository.FilterWall
	}
	if !opts.Filter.Valid() {
		return nil, apperror.ValidationFailed("filter",
			fmt.Sprintf("unknown filter %q (want wall, answered or my_prayers)", opts.Filter))
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.PerPage > MaxPerPage {
		opts.PerPage = MaxPerPage
	}
	if opts.Page < 1 {
		opts.Page = 1
	}

	list, err := s.repo.FetchMany(ctx, opts)
	if err != nil {
		s.logFailure("failed to list prayer requests", err, slog.String("filter", string(opts.Filter)))
		return nil, fmt.Errorf("listing prayer requests: %w", err)
	}

	records, err := model.FromTransportList(list)
	if err != nil {
		s.logger.Error("server sent a malformed prayer request list",
			slog.Int("count", len(list)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("decoding prayer request list: %w", err)
	}
	return records, nil
}

// Create validates p and submits it.
//
// The request body is built from a draft record: model.New applies the same
// defaults the decoder does, and ToTransport().Pick keeps only the keys the
// server accepts on create.
func (s *PrayerService) Create(ctx context.Context, p NewPrayer) (model.PrayerRequest, error) {
	title := strings.TrimSpace(p.Title)
	content := strings.TrimSpace(p.Content)
	category := strings.TrimSpace(p.Category)

	if err := validateTitle(title); err != nil {
		return model.PrayerRequest{}, err
	}
	if err := validateContent(content); err != nil {
		return model.PrayerRequest{}, err
	}

	opts := []model.Option{model.WithAnonymous(p.IsAnonymous)}
	keys := []string{model.KeyTitle, model.KeyContent, model.KeyIsAnonymous, model.KeyStatus}

	if p.Status != "" {
		if err := validateStatus(p.Status); err != nil {
			return model.PrayerRequest{}, err
		}
		opts = append(opts, model.WithStatus(p.Status))
	}
	if category != "" {
		if err := validateCategory(category); err != nil {
			return model.PrayerRequest{}, err
		}
		opts = append(opts, model.WithCategory(category))
		keys = append(keys, model.KeyCategory)
	}

	draft := model.New(0, 0, title, content, time.Time{}, opts...)

	m, err := s.repo.Create(ctx, draft.ToTransport().Pick(keys...))
	if err != nil {
		s.logFailure("failed to create prayer request", err, slog.String("title", title))
		return model.PrayerRequest{}, fmt.Errorf("creating prayer request: %w", err)
	}

	created, err := s.decode(m)
	if err != nil {
		return model.PrayerRequest{}, err
	}

	s.logger.Info("prayer request created",
		slog.Int64("id", created.ID()),
		slog.String("title", created.Title()),
	)
	return created, nil
}

// Update applies u to current and sends the changed fields to the server.
//
// STRATEGY: "apply locally, send the diff"
//  1. Validate the overrides
//  2. current.WithUpdates(u) builds the locally updated record
//  3. Only the keys named by u.TransportKeys() go into the PATCH body
//  4. The server's answer (with its new updated_at) is decoded and returned
//
// current is never modified. Overrides the server does not accept on PATCH
// (prayersCount, hasPrayed, userProfilePic) are a validation error when they
// are the only thing set, and are otherwise left out of the body.
func (s *PrayerService) Update(ctx context.Context, current model.PrayerRequest, u model.Update) (model.PrayerRequest, error) {
	keys := u.TransportKeys()
	if len(keys) == 0 {
		return model.PrayerRequest{}, apperror.ValidationFailed("update",
			"nothing to update: set at least one of title, content, is_anonymous, category or status")
	}

	if u.Title != nil {
		u.Title = model.Ptr(strings.TrimSpace(*u.Title))
		if err := validateTitle(*u.Title); err != nil {
			return model.PrayerRequest{}, err
		}
	}
	if u.Content != nil {
		u.Content = model.Ptr(strings.TrimSpace(*u.Content))
		if err := validateContent(*u.Content); err != nil {
			return model.PrayerRequest{}, err
		}
	}
	if u.Category != nil {
		u.Category = model.Ptr(strings.TrimSpace(*u.Category))
		if err := validateCategory(*u.Category); err != nil {
			return model.PrayerRequest{}, err
		}
	}
	if u.Status != nil {
		if err := validateStatus(*u.Status); err != nil {
			return model.PrayerRequest{}, err
		}
	}

	body := current.WithUpdates(u).ToTransport().Pick(keys...)

	m, err := s.repo.Update(ctx, current.ID(), body)
	if err != nil {
		s.logFailure("failed to update prayer request", err, slog.Int64("id", current.ID()))
		return model.PrayerRequest{}, fmt.Errorf("updating prayer request %d: %w", current.ID(), err)
	}

	updated, err := s.decode(m)
	if err != nil {
		return model.PrayerRequest{}, err
	}

	s.logger.Info("prayer request updated",
		slog.Int64("id", updated.ID()),
		slog.Any("fields", keys),
	)
	return updated, nil
}

// Delete removes a prayer request. Returns apperror.ErrNotFound if it doesn't exist.
func (s *PrayerService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logFailure("failed to delete prayer request", err, slog.Int64("id", id))
		return fmt.Errorf("deleting prayer request %d: %w", id, err)
	}

	s.logger.Info("prayer request deleted", slog.Int64("id", id))
	return nil
}

// TogglePrayer flips the caller's "I prayed for this" mark and returns the
// refreshed record.
func (s *PrayerService) TogglePrayer(ctx context.Context, id int64) (model.PrayerRequest, error) {
	m, err := s.repo.TogglePrayer(ctx, id)
	if err != nil {
		s.logFailure("failed to toggle prayer", err, slog.Int64("id", id))
		return model.PrayerRequest{}, fmt.Errorf("toggling prayer on %d: %w", id, err)
	}

	p, err := s.decode(m)
	if err != nil {
		return model.PrayerRequest{}, err
	}

	s.logger.Info("prayer toggled",
		slog.Int64("id", p.ID()),
		slog.Bool("has_prayed", p.HasPrayed()),
		slog.Int("prayers_count", p.PrayersCount()),
	)
	return p, nil
}

func (s *PrayerService) decode(m model.Mapping) (model.PrayerRequest, error) {
	p, err := model.FromTransport(m)
	if err != nil {
		s.logger.Error("server sent a malformed prayer request", slog.String("error", err.Error()))
		return model.PrayerRequest{}, fmt.Errorf("decoding prayer request: %w", err)
	}
	return p, nil
}

// logFailure logs repository errors. NotFound and validation errors are normal
// answers, not failures, so they are only logged at debug level.
func (s *PrayerService) logFailure(msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
		s.logger.Debug(msg, attrs...)
		return
	}
	s.logger.Error(msg, attrs...)
}

func validateTitle(title string) error {
	if title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	return nil
}

func validateContent(content string) error {
	if content == "" {
		return apperror.ValidationFailed("content", "content is required")
	}
	return nil
}

func validateCategory(category string) error {
	if category == "" {
		return apperror.ValidationFailed("category", "category cannot be empty")
	}
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return apperror.ValidationFailed("category",
			fmt.Sprintf("category must be %d characters or less", MaxCategoryLength))
	}
	return nil
}

func validateStatus(status model.Status) error {
	if !status.Valid() {
		return apperror.ValidationFailed("status",
			fmt.Sprintf("status must be %q or %q, got %q", model.StatusPending, model.StatusAnswered, status))
	}
	return nil
}
