package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrWong99/pronuncia/internal/attempt"
	"github.com/MrWong99/pronuncia/internal/observe"
	"github.com/MrWong99/pronuncia/internal/scoring"
)

// evaluation is the /avaliar response: the score plus request echoes.
type evaluation struct {
	scoring.Result
	UserID                string `json:"user_id"`
	TranscriptionProvider string `json:"transcription_provider"`
	AudioName             string `json:"audio_name"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "formulário inválido: %v", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID := strings.TrimSpace(r.FormValue("user_id"))
	target := strings.TrimSpace(r.FormValue("target_word"))
	if userID == "" || target == "" {
		writeError(w, http.StatusBadRequest, "campos 'user_id' e 'target_word' são obrigatórios")
		return
	}
	useAI, err := formBool(r, "ai_scoring", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	language := formString(r, "language", "")
	scoringProvider := r.FormValue("scoring_provider")

	up, err := saveUpload(r, "audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	defer up.Remove()

	ctx := r.Context()
	transcript, used, err := s.transcribe(ctx, r.FormValue("provider"), up.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Falha na transcrição (%s): %v", used, err)
		return
	}

	res := s.score(ctx, target, transcript, useAI, scoringProvider, language)
	s.record(ctx, &attempt.Attempt{
		UserID:                userID,
		Expected:              target,
		Transcript:            transcript,
		AudioName:             up.Name,
		TranscriptionProvider: used,
		Result:                res,
	})

	writeJSON(w, http.StatusOK, evaluation{
		Result:                res,
		UserID:                userID,
		TranscriptionProvider: used,
		AudioName:             up.Name,
	})
}

type textEvaluationRequest struct {
	UserID          string `json:"user_id"`
	Expected        string `json:"expected"`
	Predicted       string `json:"predicted"`
	AIScoring       *bool  `json:"ai_scoring"`
	ScoringProvider string `json:"scoring_provider"`
	Language        string `json:"language"`
}

func (s *Server) handleEvaluateText(w http.ResponseWriter, r *http.Request) {
	var req textEvaluationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido: %v", err)
		return
	}
	if strings.TrimSpace(req.Expected) == "" {
		writeError(w, http.StatusBadRequest, "campo 'expected' é obrigatório")
		return
	}
	useAI := req.AIScoring == nil || *req.AIScoring

	ctx := r.Context()
	res := s.score(ctx, req.Expected, req.Predicted, useAI, req.ScoringProvider, req.Language)
	if req.UserID != "" {
		s.record(ctx, &attempt.Attempt{
			UserID:     req.UserID,
			Expected:   req.Expected,
			Transcript: req.Predicted,
			Result:     res,
		})
	}
	writeJSON(w, http.StatusOK, res)
}

// score runs the qualitative scorer or, when useAI is false, the
// deterministic one.
func (s *Server) score(ctx context.Context, expected, predicted string, useAI bool, provider, language string) scoring.Result {
	svc := s.Services()
	if !useAI {
		res := svc.Deterministic.Traditional(expected, predicted)
		s.metrics.RecordScore(ctx, res.Method)
		return res
	}
	if strings.TrimSpace(language) == "" {
		language = svc.Language
	}
	return svc.Scorer.Score(ctx, expected, predicted, provider, language)
}

// record stores a; failures are logged and do not affect the response.
func (s *Server) record(ctx context.Context, a *attempt.Attempt) {
	if s.cfg.Attempts == nil {
		return
	}
	if err := s.cfg.Attempts.Record(ctx, a); err != nil {
		observe.Logger(ctx).Warn("failed to record attempt", "user_id", a.UserID, "err", err)
	}
}
