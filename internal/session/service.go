package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Service orchestrates session scheduling: overlap rejection,
// cross-context consistency, lecturer status, persistence and the
// post-commit event.
type Service struct {
	repo     Repository
	academic AcademicStructure
	users    UserDirectory
	events   EventPublisher

	minDuration   time.Duration
	defaultRadius float64
	now           func() time.Time
	log           zerolog.Logger
}

// NewService wires a service with its ports. Zero minDuration and
// defaultRadius fall back to the package defaults.
func NewService(repo Repository, academic AcademicStructure, users UserDirectory, events EventPublisher, minDuration time.Duration, defaultRadius float64, log zerolog.Logger) *Service {
	if minDuration <= 0 {
		minDuration = DefaultMinDuration
	}
	if defaultRadius <= 0 {
		defaultRadius = DefaultRadiusMeters
	}
	return &Service{
		repo:          repo,
		academic:      academic,
		users:         users,
		events:        events,
		minDuration:   minDuration,
		defaultRadius: defaultRadius,
		now:           time.Now,
		log:           log,
	}
}

// MinDuration exposes the configured minimum session length.
func (s *Service) MinDuration() time.Duration { return s.minDuration }

// CreateSession validates the command against every scheduling rule and
// persists the candidate. No repository mutation happens before all
// validations pass.
func (s *Service) CreateSession(ctx context.Context, lecturer Actor, cmd CreateSessionCommand) (Session, error) {
	candidate, err := cmd.Parse(s.minDuration, s.defaultRadius)
	if err != nil {
		return Session{}, err
	}
	candidate.LecturerID = lecturer.ID
	candidate.CreatedAt = s.now().UTC()

	overlapping, err := s.repo.HasOverlapping(ctx, lecturer.ID, candidate.Window.Start, candidate.Window.End)
	if err != nil {
		return Session{}, fmt.Errorf("overlap check: %w", err)
	}
	if overlapping {
		return Session{}, fmt.Errorf("lecturer %s between %s and %s: %w",
			lecturer.ID, candidate.Window.Start.Format(time.RFC3339), candidate.Window.End.Format(time.RFC3339), ErrOverlappingSession)
	}

	if err := s.checkAcademicContext(ctx, lecturer, candidate); err != nil {
		return Session{}, err
	}

	active, err := s.users.IsLecturerActive(ctx, lecturer.ID)
	if err != nil {
		return Session{}, fmt.Errorf("lecturer status: %w", err)
	}
	if !active {
		return Session{}, fmt.Errorf("lecturer %s: %w", lecturer.ID, ErrInactiveLecturer)
	}

	saved, err := s.repo.Save(ctx, candidate)
	if err != nil {
		return Session{}, err
	}

	s.publish(ctx, "session.created", map[string]any{
		"session_id":  saved.ID,
		"lecturer_id": saved.LecturerID,
	})
	return saved, nil
}

func (s *Service) checkAcademicContext(ctx context.Context, lecturer Actor, candidate Session) error {
	ok, err := s.academic.CourseBelongsToProgram(ctx, candidate.CourseID, candidate.ProgramID)
	if err != nil {
		return fmt.Errorf("course lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("course %d, program %d: %w", candidate.CourseID, candidate.ProgramID, ErrCourseNotInProgram)
	}

	hasStreams, err := s.academic.ProgramHasStreams(ctx, candidate.ProgramID)
	if err != nil {
		return fmt.Errorf("stream lookup: %w", err)
	}
	switch {
	case hasStreams && candidate.StreamID == nil:
		return fmt.Errorf("program %d requires a stream: %w", candidate.ProgramID, ErrStreamMismatch)
	case !hasStreams && candidate.StreamID != nil:
		return fmt.Errorf("program %d has no streams: %w", candidate.ProgramID, ErrStreamMismatch)
	case hasStreams:
		ok, err := s.academic.StreamBelongsToProgram(ctx, *candidate.StreamID, candidate.ProgramID)
		if err != nil {
			return fmt.Errorf("stream lookup: %w", err)
		}
		if !ok {
			return fmt.Errorf("stream %d, program %d: %w", *candidate.StreamID, candidate.ProgramID, ErrStreamMismatch)
		}
	}

	assigned, err := s.academic.CourseLecturer(ctx, candidate.CourseID)
	if err != nil {
		return fmt.Errorf("course lecturer lookup: %w", err)
	}
	if assigned != lecturer.ID {
		return fmt.Errorf("course %d is assigned to %s: %w", candidate.CourseID, assigned, ErrLecturerNotAssigned)
	}
	return nil
}

// GetSession is an ownership-gated read.
func (s *Service) GetSession(ctx context.Context, requester Actor, id string) (Session, error) {
	found, err := s.fetchOwned(ctx, requester, id)
	if err != nil {
		return Session{}, err
	}
	return *found, nil
}

// ListMySessions returns the requester's own sessions.
func (s *Service) ListMySessions(ctx context.Context, requester Actor, f ListFilter) ([]Session, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.ListByLecturer(ctx, requester.ID, f)
}

// EndSession truncates the window's end to now, never below the minimum
// duration past the start, and returns the new session value.
func (s *Service) EndSession(ctx context.Context, requester Actor, id string) (Session, error) {
	found, err := s.fetchOwned(ctx, requester, id)
	if err != nil {
		return Session{}, err
	}

	newEnd := s.now().UTC()
	if floor := found.Window.Start.Add(s.minDuration); newEnd.Before(floor) {
		newEnd = floor
	}
	if !newEnd.Before(found.Window.End) {
		// Already over; nothing to truncate.
		return *found, nil
	}
	window, err := found.Window.WithEnd(newEnd, s.minDuration)
	if err != nil {
		return Session{}, err
	}

	updated := found.WithWindow(window)
	if err := s.repo.Update(ctx, updated); err != nil {
		return Session{}, err
	}
	s.publish(ctx, "session.ended", map[string]any{
		"session_id":  updated.ID,
		"lecturer_id": updated.LecturerID,
	})
	return updated, nil
}

// UpdateSession replaces the window and/or location, re-validating every
// invariant, and returns the new session value.
func (s *Service) UpdateSession(ctx context.Context, requester Actor, id string, cmd UpdateSessionCommand) (Session, error) {
	found, err := s.fetchOwned(ctx, requester, id)
	if err != nil {
		return Session{}, err
	}
	updated, err := cmd.Apply(*found, s.minDuration)
	if err != nil {
		return Session{}, err
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return Session{}, err
	}
	return updated, nil
}

func (s *Service) fetchOwned(ctx context.Context, requester Actor, id string) (*Session, error) {
	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	if !found.OwnedBy(requester) {
		return nil, fmt.Errorf("session %s: %w", id, ErrPermissionDenied)
	}
	return found, nil
}

// publish runs strictly after the repository write has returned. A failed
// publish never rolls back the write; it is logged for the relay to
// reconcile.
func (s *Service) publish(ctx context.Context, name string, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, name, payload); err != nil {
		s.log.Error().Err(err).Str("event", name).Msg("event publish failed")
	}
}
