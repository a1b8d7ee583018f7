package survey

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Service owns the shared read-only catalog, the session registry, and the
// configured response sinks. All session mutations flow through here so the
// non-fatal persistence policy lives in one place.
type Service struct {
	catalog  []CatalogEntry
	settings Settings
	registry *Registry
	sinks    []RecordSink
	logger   zerolog.Logger
}

func NewService(catalog []CatalogEntry, settings Settings, sinks []RecordSink, logger zerolog.Logger) (*Service, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Service{
		catalog:  catalog,
		settings: settings.withDefaults(),
		registry: NewRegistry(),
		sinks:    sinks,
		logger:   logger,
	}, nil
}

func (s *Service) Settings() Settings {
	return s.settings
}

func (s *Service) TotalTrials() int {
	return len(s.catalog)
}

func (s *Service) StartSession() (*Session, error) {
	session, err := NewSession(NewSessionID(), s.catalog, s.settings)
	if err != nil {
		return nil, err
	}
	s.registry.Add(session)
	s.logger.Info().Str("session_id", session.ID()).Int("total_trials", session.TotalTrials()).Msg("session started")
	return session, nil
}

func (s *Service) GetSession(sessionID string) (*Session, error) {
	session, ok := s.registry.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) Consent(sessionID string, agreed bool, participantID string) (Participant, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return Participant{}, err
	}
	if err := session.Consent(agreed, participantID, time.Now()); err != nil {
		return Participant{}, err
	}
	participant := session.Participant()
	s.logger.Info().Str("session_id", sessionID).Str("participant_id", participant.ID).Msg("consent recorded")
	return participant, nil
}

func (s *Service) SetDemographics(sessionID string, d Demographics) error {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return err
	}
	return session.SetDemographics(d, time.Now())
}

func (s *Service) CurrentTrial(sessionID string) (Trial, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return Trial{}, err
	}
	return session.CurrentTrial(time.Now())
}

// SubmitRatings records one trial and forwards the record to every sink.
// Sink failures come back as human-readable warnings, not errors: the
// session log already holds the record and the session has already
// advanced, which is the deliberate non-fatal persistence policy.
func (s *Service) SubmitRatings(ctx context.Context, sessionID string, r Ratings) (ResponseRecord, []string, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return ResponseRecord{}, nil, err
	}

	record, err := session.SubmitRatings(r, time.Now())
	if err != nil {
		return ResponseRecord{}, nil, err
	}

	warnings := s.forwardRecord(ctx, record)
	if session.Phase() == PhaseDone {
		s.logger.Info().
			Str("session_id", sessionID).
			Str("participant_id", record.ParticipantID).
			Int("responses", session.Completed()).
			Msg("session completed")
	}
	return record, warnings, nil
}

func (s *Service) Responses(sessionID string) ([]ResponseRecord, error) {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Responses(), nil
}

func (s *Service) forwardRecord(ctx context.Context, record ResponseRecord) []string {
	var warnings []string
	for _, sink := range s.sinks {
		if err := sink.AppendResponse(ctx, record); err != nil {
			s.logger.Warn().
				Err(err).
				Str("participant_id", record.ParticipantID).
				Int("order_index", record.OrderIndex).
				Msg("response sink append failed")
			warnings = append(warnings, fmt.Sprintf("persistence failed: %v", err))
		}
	}
	return warnings
}
