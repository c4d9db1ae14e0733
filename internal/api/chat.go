package api

import (
	"net/http"
	"strings"
)

const tutorSystemPrompt = `Você é um professor de pronúncia especializado e paciente.

SEU PAPEL:
- Ajudar alunos a melhorar pronúncia em qualquer idioma
- Explicar sons difíceis de forma clara e prática
- Dar exercícios e dicas personalizadas
- Ser encorajador e motivador

ESTILO:
- Use emojis para tornar mais amigável 🎯
- Dê exemplos práticos e comparações
- Se o aluno perguntar sobre uma palavra específica, explique cada som
- Sugira exercícios quando apropriado

FORMATO:
- Seja conciso mas completo
- Use bullets quando listar dicas
- Destaque sons problemáticos com **negrito**`

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "formulário inválido: %v", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	up, err := saveUpload(r, "audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	defer up.Remove()

	transcript, used, err := s.transcribe(r.Context(), r.FormValue("provider"), up.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Falha na transcrição (%s): %v", used, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcript": transcript})
}

func (s *Server) handleTalk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "formulário inválido: %v", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	provider := formString(r, "provider", defaultChatProvider)
	system := formString(r, "system", defaultSystemPrompt)

	up, err := saveUpload(r, "audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	defer up.Remove()

	ctx := r.Context()
	transcript, used, err := s.transcribe(ctx, provider, up.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Falha na transcrição (%s): %v", used, err)
		return
	}
	reply, err := s.reply(ctx, provider, system, transcript)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Falha ao conversar com %s: %v", provider, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcript": transcript, "reply": reply})
}

func (s *Server) handleChatText(w http.ResponseWriter, r *http.Request) {
	message, provider, ok := s.chatForm(w, r)
	if !ok {
		return
	}
	system := formString(r, "system", defaultSystemPrompt)
	reply, err := s.reply(r.Context(), provider, system, message)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Falha ao conversar com %s: %v", provider, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleTutor(w http.ResponseWriter, r *http.Request) {
	message, provider, ok := s.chatForm(w, r)
	if !ok {
		return
	}
	reply, err := s.reply(r.Context(), provider, tutorSystemPrompt, message)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Falha ao conversar com tutor: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"reply":    reply,
		"provider": provider,
		"mode":     "tutor",
	})
}

// chatForm parses the message and provider fields shared by the text chat
// routes. It writes the error response itself and reports false on failure.
func (s *Server) chatForm(w http.ResponseWriter, r *http.Request) (message, provider string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "formulário inválido: %v", err)
		return "", "", false
	}
	message = strings.TrimSpace(r.FormValue("message"))
	if message == "" {
		writeError(w, http.StatusBadRequest, "campo 'message' é obrigatório")
		return "", "", false
	}
	return message, strings.ToLower(formString(r, "provider", defaultChatProvider)), true
}
