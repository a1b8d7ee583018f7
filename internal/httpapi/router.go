package httpapi

import (
	"net/http"

	"survey-app/internal/survey"
)

func NewRouter(service *survey.Service) http.Handler {
	api := NewAPI(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", api.HandleCreateSession)
	mux.HandleFunc("/sessions/{session_id}", api.HandleSession)
	mux.HandleFunc("/sessions/{session_id}/consent", api.HandleConsent)
	mux.HandleFunc("/sessions/{session_id}/demographics", api.HandleDemographics)
	mux.HandleFunc("/sessions/{session_id}/trial", api.HandleTrial)
	mux.HandleFunc("/sessions/{session_id}/trial/image", api.HandleTrialImage)
	mux.HandleFunc("/sessions/{session_id}/ratings", api.HandleRatings)
	mux.HandleFunc("/sessions/{session_id}/responses", api.HandleResponses)
	mux.HandleFunc("/sessions/{session_id}/export", api.HandleExport)

	return mux
}
