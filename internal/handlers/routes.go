package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func RegisterRoutes(r *mux.Router, h *APIHandler, webDir string) {
	r.HandleFunc("/healthz", HandleHealthz).Methods("GET")
	r.HandleFunc("/api/analyze", h.HandleAnalyze).Methods("POST")
	r.HandleFunc("/api/speech", h.HandleSpeech).Methods("POST")
	r.HandleFunc("/api/analyses", h.HandleListAnalyses).Methods("GET")
	r.HandleFunc("/api/images/{fingerprint}", h.HandleGetImage).Methods("GET")
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(webDir))).Methods("GET")
}
