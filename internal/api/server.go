// Package api exposes the scoring engine, the practice generator and the
// provider passthroughs over HTTP.
//
// Routes are served by a chi router wrapped in CORS, tracing and a
// per-request timeout. Scorer and generator live in a [Services] bundle that
// can be swapped at runtime with [Server.SetServices] when the configuration
// is reloaded; in-flight requests keep the bundle they started with.
package api

import (
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrWong99/pronuncia/internal/attempt"
	"github.com/MrWong99/pronuncia/internal/health"
	"github.com/MrWong99/pronuncia/internal/observe"
	"github.com/MrWong99/pronuncia/internal/practice"
	"github.com/MrWong99/pronuncia/internal/scoring"
	"github.com/MrWong99/pronuncia/pkg/provider/llm"
	"github.com/MrWong99/pronuncia/pkg/provider/stt"
)

const (
	// Version is reported by GET /.
	Version = "2.0.0"

	title = "API de Avaliação de Pronúncia com IA"

	defaultChatProvider = "openai"
	defaultSystemPrompt = "Você é um assistente útil que responde de forma curta."
	defaultLanguage     = "português"

	defaultMaxUploadBytes = 25 << 20
	multipartMemory       = 8 << 20
)

// Services holds the hot-reloadable collaborators of the API.
type Services struct {
	// Scorer performs qualitative scoring with fallback.
	Scorer *scoring.AIScorer

	// Deterministic is used when a request disables AI scoring.
	Deterministic *scoring.Scorer

	// Generator produces practice items.
	Generator *practice.Generator

	// Language is the feedback language used when a request names none.
	Language string
}

// Config wires a [Server].
type Config struct {
	// Chats maps provider names to chat backends for /falar, /chat_texto and
	// /tutor_pronuncia.
	Chats map[string]llm.Provider

	// Transcribers maps provider names to speech-to-text backends.
	Transcribers map[string]stt.Transcriber

	// DefaultTranscription is used for blank or unknown provider names.
	// Default: "gemini".
	DefaultTranscription string

	// Attempts records evaluations. Nil disables persistence and the
	// attempts route.
	Attempts attempt.Store

	// Health serves /healthz and /readyz. Nil installs a handler without
	// readiness checks.
	Health *health.Handler

	// MetricsHandler serves /metrics. Nil leaves the route unregistered.
	MetricsHandler http.Handler

	// Metrics records provider and HTTP metrics. Default: observe.DefaultMetrics().
	Metrics *observe.Metrics

	RequestTimeout time.Duration
	MaxUploadBytes int64
	CORSOrigins    []string
}

// Server is the HTTP API.
type Server struct {
	cfg      Config
	metrics  *observe.Metrics
	services atomic.Pointer[Services]
}

// New returns a Server using svc until [Server.SetServices] replaces it.
func New(cfg Config, svc *Services) *Server {
	if cfg.DefaultTranscription == "" {
		cfg.DefaultTranscription = scoring.DefaultProvider
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.Health == nil {
		cfg.Health = health.New()
	}
	if cfg.Chats == nil {
		cfg.Chats = map[string]llm.Provider{}
	}
	if cfg.Transcribers == nil {
		cfg.Transcribers = map[string]stt.Transcriber{}
	}
	s := &Server{cfg: cfg, metrics: cfg.Metrics}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	s.SetServices(svc)
	return s
}

// SetServices atomically replaces the scorer and generator bundle.
func (s *Server) SetServices(svc *Services) {
	if svc.Deterministic == nil {
		svc.Deterministic = scoring.NewScorer(scoring.DefaultWeights())
	}
	if svc.Language == "" {
		svc.Language = defaultLanguage
	}
	s.services.Store(svc)
}

// Services returns the bundle currently in use.
func (s *Server) Services() *Services { return s.services.Load() }

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: originsOrAny(s.cfg.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Correlation-ID"},
		MaxAge:         300,
	}))
	r.Use(observe.Middleware(s.metrics))

	s.cfg.Health.Register(r)
	if s.cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Get("/", s.handleRoot)

		r.Post("/avaliar", s.handleEvaluate)
		r.Post("/avaliar/texto", s.handleEvaluateText)

		r.Post("/transcrever", s.handleTranscribe)
		r.Post("/falar", s.handleTalk)
		r.Post("/chat_texto", s.handleChatText)
		r.Post("/tutor_pronuncia", s.handleTutor)

		r.Get("/tarefas", s.handleListTasks)
		r.Post("/tarefas/gerar", s.handleGenerateTasks)

		if s.cfg.Attempts != nil {
			r.Get("/usuarios/{user_id}/tentativas", s.handleListAttempts)
		}
	})
	return r
}

func originsOrAny(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	chats := sortedNames(s.cfg.Chats)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": title,
		"version": Version,
		"endpoints": map[string]string{
			"/avaliar":                       "Avaliar pronúncia com feedback de IA (POST)",
			"/avaliar/texto":                 "Avaliar transcrição já pronta, sem áudio (POST)",
			"/falar":                         "Conversar via áudio com IA (POST)",
			"/transcrever":                   "Apenas transcrever áudio (POST)",
			"/chat_texto":                    "Chat via texto (POST)",
			"/tutor_pronuncia":               "Tutor interativo de pronúncia (POST)",
			"/tarefas":                       "Listar categorias de tarefas (GET)",
			"/tarefas/gerar":                 "Gerar itens de prática (POST)",
			"/usuarios/{user_id}/tentativas": "Histórico de avaliações do usuário (GET)",
		},
		"providers": map[string][]string{
			"transcription": sortedNames(s.cfg.Transcribers),
			"scoring":       chats,
			"chat":          chats,
		},
	})
}

func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
