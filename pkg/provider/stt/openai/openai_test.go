package openai_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	llmopenai "github.com/MrWong99/pronuncia/pkg/provider/llm/openai"
	"github.com/MrWong99/pronuncia/pkg/provider/stt"
	sttopenai "github.com/MrWong99/pronuncia/pkg/provider/stt/openai"
)

func TestTranscribe(t *testing.T) {
	t.Parallel()

	var gotModel, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		gotModel = r.FormValue("model")
		gotLang = r.FormValue("language")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" casa caça "}`))
	}))
	defer srv.Close()

	p, err := sttopenai.New("sk-test", "",
		[]sttopenai.Option{sttopenai.WithLanguage("pt")},
		llmopenai.WithBaseURL(srv.URL+"/v1"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := filepath.Join(t.TempDir(), "take.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := p.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "casa caça" {
		t.Errorf("text=%q", got)
	}
	if gotModel != sttopenai.DefaultModel {
		t.Errorf("model=%q, want %q", gotModel, sttopenai.DefaultModel)
	}
	if gotLang != "pt" {
		t.Errorf("language=%q, want pt", gotLang)
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := sttopenai.New("", "", nil); !errors.Is(err, stt.ErrNotConfigured) {
		t.Fatalf("New with empty key: err = %v, want ErrNotConfigured", err)
	}
}
