package survey

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Phases of a participant session, in order.
const (
	PhaseConsent      = "consent"
	PhaseDemographics = "demographics"
	PhaseShow         = "show"
	PhaseRate         = "rate"
	PhaseDone         = "done"
)

// Result judgments a participant can pick after each image.
const (
	ResultWon    = "Won"
	ResultLost   = "Lost"
	ResultUnsure = "Unsure"
)

// Emotions lists the rated emotions in schema column order.
var Emotions = []string{
	"Angry", "Happy", "Sad", "Scared",
	"Surprised", "Neutral", "Disgusted", "Contempt",
}

const (
	DefaultStudyID       = "image_emotion_survey_v4"
	DefaultExposure      = 2 * time.Second
	DefaultRatingMin     = 0
	DefaultRatingMax     = 100
	DefaultRatingDefault = 0
	DefaultMaxImages     = 30
)

var (
	ErrEmptyCatalog           = errors.New("image catalog is empty")
	ErrSessionNotFound        = errors.New("session not found")
	ErrWrongPhase             = errors.New("operation not valid in current phase")
	ErrConsentRequired        = errors.New("consent is required")
	ErrIncompleteDemographics = errors.New("demographics are incomplete")
	ErrResultRequired         = errors.New("result estimate is required")
	ErrInvalidResult          = errors.New("result estimate must be Won, Lost, or Unsure")
	ErrRatingOutOfRange       = errors.New("rating out of range")
)

// Settings carries the static study parameters a session runs with.
type Settings struct {
	StudyID       string
	Exposure      time.Duration
	RatingMin     int
	RatingMax     int
	RatingDefault int
}

func (s Settings) withDefaults() Settings {
	if strings.TrimSpace(s.StudyID) == "" {
		s.StudyID = DefaultStudyID
	}
	if s.Exposure <= 0 {
		s.Exposure = DefaultExposure
	}
	if s.RatingMax <= s.RatingMin {
		s.RatingMin = DefaultRatingMin
		s.RatingMax = DefaultRatingMax
	}
	return s
}

type Demographics struct {
	Name        string
	Age         int
	Gender      string
	Nationality string
}

func (d Demographics) normalized() Demographics {
	d.Name = strings.TrimSpace(d.Name)
	d.Gender = strings.TrimSpace(d.Gender)
	d.Nationality = strings.TrimSpace(d.Nationality)
	return d
}

// Validate rejects the snapshot as a unit; no field is coerced.
func (d Demographics) Validate() error {
	d = d.normalized()
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrIncompleteDemographics)
	}
	if d.Age <= 0 {
		return fmt.Errorf("%w: age must be a positive integer", ErrIncompleteDemographics)
	}
	if d.Gender == "" {
		return fmt.Errorf("%w: gender is required", ErrIncompleteDemographics)
	}
	if d.Nationality == "" {
		return fmt.Errorf("%w: nationality is required", ErrIncompleteDemographics)
	}
	return nil
}

// Participant identity and consent state. Demographic fields are finalized
// at the demographics phase and never change afterward.
type Participant struct {
	ID               string
	Consented        bool
	ConsentTimestamp time.Time
	Demographics
}

// Ratings is one trial's full submission: one bounded score per emotion
// plus the result judgment. Validated as a unit before acceptance.
type Ratings struct {
	Angry          int
	Happy          int
	Sad            int
	Scared         int
	Surprised      int
	Neutral        int
	Disgusted      int
	Contempt       int
	ResultEstimate string
}

func (r Ratings) Validate(min, max int) error {
	for _, emotion := range Emotions {
		score, _ := r.Score(emotion)
		if score < min || score > max {
			return fmt.Errorf("%w: %s must be between %d and %d", ErrRatingOutOfRange, emotion, min, max)
		}
	}
	result := strings.TrimSpace(r.ResultEstimate)
	if result == "" {
		return ErrResultRequired
	}
	if result != ResultWon && result != ResultLost && result != ResultUnsure {
		return ErrInvalidResult
	}
	return nil
}

// Score returns the score for a named emotion; false for unknown names.
func (r Ratings) Score(emotion string) (int, bool) {
	switch emotion {
	case "Angry":
		return r.Angry, true
	case "Happy":
		return r.Happy, true
	case "Sad":
		return r.Sad, true
	case "Scared":
		return r.Scared, true
	case "Surprised":
		return r.Surprised, true
	case "Neutral":
		return r.Neutral, true
	case "Disgusted":
		return r.Disgusted, true
	case "Contempt":
		return r.Contempt, true
	}
	return 0, false
}

// SetScore assigns the score for a named emotion; false for unknown names.
func (r *Ratings) SetScore(emotion string, score int) bool {
	switch emotion {
	case "Angry":
		r.Angry = score
	case "Happy":
		r.Happy = score
	case "Sad":
		r.Sad = score
	case "Scared":
		r.Scared = score
	case "Surprised":
		r.Surprised = score
	case "Neutral":
		r.Neutral = score
	case "Disgusted":
		r.Disgusted = score
	case "Contempt":
		r.Contempt = score
	default:
		return false
	}
	return true
}

// ResponseRecord is one flat row per completed trial, in the fixed
// 21-column schema order shared by the CSV export and every sink.
type ResponseRecord struct {
	StudyID              string `json:"study_id"`
	ParticipantID        string `json:"participant_id"`
	Consented            bool   `json:"consented"`
	ConsentTimestampISO  string `json:"consent_timestamp_iso"`
	Name                 string `json:"name"`
	Age                  int    `json:"age"`
	Gender               string `json:"gender"`
	Nationality          string `json:"nationality"`
	TrialIndex           int    `json:"trial_index"`
	OrderIndex           int    `json:"order_index"`
	ImageFile            string `json:"image_file"`
	RatingAngry          int    `json:"rating_angry"`
	RatingHappy          int    `json:"rating_happy"`
	RatingSad            int    `json:"rating_sad"`
	RatingScared         int    `json:"rating_scared"`
	RatingSurprised      int    `json:"rating_surprised"`
	RatingNeutral        int    `json:"rating_neutral"`
	RatingDisgusted      int    `json:"rating_disgusted"`
	RatingContempt       int    `json:"rating_contempt"`
	ResultEstimate       string `json:"result_estimate"`
	ResponseTimestampISO string `json:"response_timestamp_iso"`
}

// NewSessionID returns an opaque identifier for a server-side session.
func NewSessionID() string {
	return uuid.NewString()
}

// NewParticipantID generates a short human-friendly participant identifier:
// eight uppercase hex characters derived from a random UUID.
func NewParticipantID() string {
	id := uuid.New()
	return strings.ToUpper(hex.EncodeToString(id[:4]))
}

const isoLayout = "2006-01-02T15:04:05.000000"

func isoTimestamp(t time.Time) string {
	return t.UTC().Format(isoLayout) + "Z"
}
