package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"survey-app/internal/survey"
)

func (a *API) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	session, err := a.service.StartSession()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to start session"})
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID:   session.ID(),
		Phase:       session.Phase(),
		TotalTrials: session.TotalTrials(),
	})
}

func (a *API) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	session, err := a.service.GetSession(r.PathValue("session_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:     session.ID(),
		Phase:         session.Phase(),
		ParticipantID: session.Participant().ID,
		Completed:     session.Completed(),
		TotalTrials:   session.TotalTrials(),
	})
}

func (a *API) HandleConsent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	defer r.Body.Close()

	var request consentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	participant, err := a.service.Consent(r.PathValue("session_id"), request.Agreed, request.ParticipantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, consentResponse{
		Phase:               survey.PhaseDemographics,
		ParticipantID:       participant.ID,
		ConsentTimestampISO: participant.ConsentTimestamp.UTC().Format(time.RFC3339),
	})
}

func (a *API) HandleDemographics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	defer r.Body.Close()

	var request demographicsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	err := a.service.SetDemographics(r.PathValue("session_id"), survey.Demographics{
		Name:        request.Name,
		Age:         request.Age,
		Gender:      request.Gender,
		Nationality: request.Nationality,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, phaseResponse{Phase: survey.PhaseShow})
}

func (a *API) HandleTrial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	trial, err := a.service.CurrentTrial(r.PathValue("session_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trialResponse{
		Phase:       trial.Phase,
		OrderIndex:  trial.OrderIndex,
		TotalTrials: trial.Total,
		ImageFile:   trial.Entry.File,
		RemainingMS: trial.Remaining.Milliseconds(),
	})
}

func (a *API) HandleTrialImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	trial, err := a.service.CurrentTrial(r.PathValue("session_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	http.ServeFile(w, r, trial.Entry.Path)
}

func (a *API) HandleRatings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	defer r.Body.Close()

	var request ratingsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	sessionID := r.PathValue("session_id")
	ratings := request.toRatings(a.service.Settings().RatingDefault)

	record, warnings, err := a.service.SubmitRatings(r.Context(), sessionID, ratings)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	session, err := a.service.GetSession(sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ratingsResponse{
		Phase:      session.Phase(),
		OrderIndex: record.OrderIndex,
		Recorded:   session.Completed(),
		Warnings:   warnings,
	})
}

func (a *API) HandleResponses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	session, err := a.service.GetSession(r.PathValue("session_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	records := session.Responses()
	writeJSON(w, http.StatusOK, responsesResponse{
		ParticipantID: session.Participant().ID,
		Count:         len(records),
		Responses:     records,
	})
}

func (a *API) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	session, err := a.service.GetSession(r.PathValue("session_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if session.Phase() != survey.PhaseDone {
		writeServiceError(w, survey.ErrWrongPhase)
		return
	}

	filename := survey.ExportFilename(session.Participant().ID, time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(filename, `"`, "")+`"`)
	_ = survey.WriteCSV(w, session.Responses())
}
