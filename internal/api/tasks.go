package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MrWong99/pronuncia/internal/practice"
)

type generateRequest struct {
	Category    string `json:"category"`
	Count       *int   `json:"count"`
	AgeGroup    string `json:"age_group"`
	Difficulty  string `json:"difficulty"`
	IncludeMeta bool   `json:"include_meta"`
}

type generateResponse struct {
	Category   string `json:"category"`
	Title      string `json:"title"`
	AgeGroup   string `json:"age_group"`
	Difficulty string `json:"difficulty"`
	Items      any    `json:"items"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Services().Generator.Catalog().List())
}

func (s *Server) handleGenerateTasks(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerate(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	gen := s.Services().Generator
	catalog := gen.Catalog()
	category := strings.ToLower(strings.TrimSpace(req.Category))
	cat, ok := catalog.Get(category)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     "Categoria desconhecida",
			"available": catalog.Keys(),
		})
		return
	}

	items, err := gen.Generate(r.Context(), category, *req.Count, practice.Options{
		AgeGroup:    req.AgeGroup,
		Difficulty:  req.Difficulty,
		IncludeMeta: req.IncludeMeta,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Falha ao gerar tarefas: %v", err)
		return
	}

	resp := generateResponse{
		Category:   category,
		Title:      cat.Title,
		AgeGroup:   req.AgeGroup,
		Difficulty: req.Difficulty,
		Items:      items,
	}
	if !req.IncludeMeta {
		resp.Items = practice.Texts(items)
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeGenerate reads a JSON or form request and applies defaults.
func decodeGenerate(w http.ResponseWriter, r *http.Request) (generateRequest, error) {
	var req generateRequest
	if isJSON(r) {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			return req, errors.New("JSON inválido: " + err.Error())
		}
	} else {
		if err := parseForm(r); err != nil {
			return req, errors.New("formulário inválido: " + err.Error())
		}
		count, err := formInt(r, "count", 5)
		if err != nil {
			return req, err
		}
		meta, err := formBool(r, "include_meta", false)
		if err != nil {
			return req, err
		}
		req = generateRequest{
			Category:    r.FormValue("category"),
			Count:       &count,
			AgeGroup:    r.FormValue("age_group"),
			Difficulty:  r.FormValue("difficulty"),
			IncludeMeta: meta,
		}
	}

	if strings.TrimSpace(req.Category) == "" {
		return req, errors.New("campo 'category' é obrigatório")
	}
	if req.Count == nil {
		n := 5
		req.Count = &n
	}
	if *req.Count < 0 || *req.Count > practice.MaxCount {
		return req, fmt.Errorf("campo 'count' deve estar entre 0 e %d", practice.MaxCount)
	}
	if req.AgeGroup == "" {
		req.AgeGroup = practice.AgeAdulto
	}
	if req.Difficulty == "" {
		req.Difficulty = practice.DifficultyMedio
	}
	return req, nil
}
