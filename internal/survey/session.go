package survey

import (
	"strings"
	"sync"
	"time"
)

// Session is the explicit per-participant context object driving the linear
// phase machine consent -> demographics -> show -> rate -> done, with
// show <-> rate repeating once per trial. All state a phase needs lives
// here; each transition has a single mutation point guarded by validation
// on the already-captured inputs, so a failed validation leaves the session
// untouched.
type Session struct {
	mu sync.Mutex

	id       string
	settings Settings
	catalog  []CatalogEntry

	phase       string
	participant Participant
	order       []int
	cursor      int
	// showStartedAt is set exactly once per trial, on the first exposure
	// evaluation; zero means the current trial has not started showing.
	showStartedAt time.Time
	responses     []ResponseRecord
}

func NewSession(id string, catalog []CatalogEntry, settings Settings) (*Session, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Session{
		id:       id,
		settings: settings.withDefaults(),
		catalog:  catalog,
		phase:    PhaseConsent,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Participant() Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participant
}

func (s *Session) TotalTrials() int {
	return len(s.catalog)
}

func (s *Session) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses)
}

// Responses returns a copy of the append-only session log.
func (s *Session) Responses() []ResponseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ResponseRecord, len(s.responses))
	copy(out, s.responses)
	return out
}

// Order returns a copy of the trial order; empty before demographics.
func (s *Session) Order() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.order))
	copy(out, s.order)
	return out
}

// Consent moves consent -> demographics. A missing participant id is
// replaced with a generated one; a supplied id wins.
func (s *Session) Consent(agreed bool, participantID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseConsent {
		return ErrWrongPhase
	}
	if !agreed {
		return ErrConsentRequired
	}

	id := strings.TrimSpace(participantID)
	if id == "" {
		id = NewParticipantID()
	}
	s.participant.ID = id
	s.participant.Consented = true
	s.participant.ConsentTimestamp = now.UTC()
	s.phase = PhaseDemographics
	return nil
}

// SetDemographics moves demographics -> show. On success the trial order is
// computed from the participant id and the cursor reset, which makes the
// order immutable for the rest of the session.
func (s *Session) SetDemographics(d Demographics, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseDemographics {
		return ErrWrongPhase
	}
	if err := d.Validate(); err != nil {
		return err
	}

	s.participant.Demographics = d.normalized()
	s.order = RandomizeOrder(len(s.catalog), s.participant.ID)
	s.cursor = 0
	s.showStartedAt = time.Time{}
	s.phase = PhaseShow
	return nil
}

// Trial describes the current image exposure or rating target.
type Trial struct {
	OrderIndex int // 1-based position in the randomized sequence
	Total      int
	Entry      CatalogEntry
	Phase      string
	Remaining  time.Duration
}

// CurrentTrial evaluates the exposure deadline for the current trial. The
// first call per trial starts the exposure clock; every call recomputes
// elapsed = now - start and performs the show -> rate transition once the
// configured exposure has passed. Intermediate calls never restart the
// clock, so the physical exposure duration is independent of how often the
// client polls.
func (s *Session) CurrentTrial(now time.Time) (Trial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseShow && s.phase != PhaseRate {
		return Trial{}, ErrWrongPhase
	}

	trial := Trial{
		OrderIndex: s.cursor + 1,
		Total:      len(s.order),
		Entry:      s.catalog[s.order[s.cursor]],
	}

	if s.phase == PhaseShow {
		if s.showStartedAt.IsZero() {
			s.showStartedAt = now
		}
		remaining := s.settings.Exposure - now.Sub(s.showStartedAt)
		if remaining <= 0 {
			s.phase = PhaseRate
			remaining = 0
		}
		trial.Remaining = remaining
	}
	trial.Phase = s.phase
	return trial, nil
}

// SubmitRatings accepts one validated rating set for the current trial,
// appends exactly one record to the session log, and advances rate -> show
// (or rate -> done after the final trial). The local append is the
// authoritative write; forwarding to external sinks is the caller's
// concern and never blocks this transition.
func (s *Session) SubmitRatings(r Ratings, now time.Time) (ResponseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseRate {
		return ResponseRecord{}, ErrWrongPhase
	}
	if err := r.Validate(s.settings.RatingMin, s.settings.RatingMax); err != nil {
		return ResponseRecord{}, err
	}

	entry := s.catalog[s.order[s.cursor]]
	record := ResponseRecord{
		StudyID:              s.settings.StudyID,
		ParticipantID:        s.participant.ID,
		Consented:            s.participant.Consented,
		ConsentTimestampISO:  isoTimestamp(s.participant.ConsentTimestamp),
		Name:                 s.participant.Name,
		Age:                  s.participant.Age,
		Gender:               s.participant.Gender,
		Nationality:          s.participant.Nationality,
		TrialIndex:           entry.Index + 1,
		OrderIndex:           s.cursor + 1,
		ImageFile:            entry.File,
		RatingAngry:          r.Angry,
		RatingHappy:          r.Happy,
		RatingSad:            r.Sad,
		RatingScared:         r.Scared,
		RatingSurprised:      r.Surprised,
		RatingNeutral:        r.Neutral,
		RatingDisgusted:      r.Disgusted,
		RatingContempt:       r.Contempt,
		ResultEstimate:       strings.TrimSpace(r.ResultEstimate),
		ResponseTimestampISO: isoTimestamp(now),
	}

	s.responses = append(s.responses, record)
	s.cursor++
	s.showStartedAt = time.Time{}
	if s.cursor >= len(s.order) {
		s.phase = PhaseDone
	} else {
		s.phase = PhaseShow
	}
	return record, nil
}
