package whisper_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrWong99/pronuncia/pkg/provider/stt"
	"github.com/MrWong99/pronuncia/pkg/provider/stt/whisper"
)

// newMockServer returns a test server mimicking whisper-server's /inference
// endpoint. It records the last multipart form it received.
func newMockServer(t *testing.T, status int, body string, gotForm *map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if gotForm != nil {
			form := map[string]string{}
			for k, v := range r.MultipartForm.Value {
				form[k] = v[0]
			}
			if fh := r.MultipartForm.File["file"]; len(fh) == 1 {
				f, _ := fh[0].Open()
				data, _ := io.ReadAll(f)
				f.Close()
				form["file"] = string(data)
				form["filename"] = fh[0].Filename
			}
			*gotForm = form
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeAudio(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestNew_EmptyServerURL_ReturnsError(t *testing.T) {
	t.Parallel()
	if _, err := whisper.New(""); err == nil {
		t.Fatal("expected error for empty server URL")
	}
}

func TestTranscribe_PostsFileAndHints(t *testing.T) {
	t.Parallel()

	var form map[string]string
	srv := newMockServer(t, http.StatusOK, `{"text":"  o rato roeu a roupa \n"}`, &form)

	p, err := whisper.New(srv.URL+"/", whisper.WithLanguage("pt"), whisper.WithModel("small"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := writeAudio(t, "take1.ogg", "fake-audio")

	got, err := p.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "o rato roeu a roupa" {
		t.Errorf("text=%q", got)
	}
	if form["language"] != "pt" || form["model"] != "small" {
		t.Errorf("hints=%v", form)
	}
	if form["file"] != "fake-audio" || form["filename"] != "take1.ogg" {
		t.Errorf("file=%q name=%q", form["file"], form["filename"])
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	t.Parallel()

	srv := newMockServer(t, http.StatusInternalServerError, `boom`, nil)
	p, _ := whisper.New(srv.URL)

	if _, err := p.Transcribe(context.Background(), writeAudio(t, "a.wav", "x")); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestTranscribe_EmptyFile(t *testing.T) {
	t.Parallel()

	p, _ := whisper.New("http://127.0.0.1:1")
	_, err := p.Transcribe(context.Background(), writeAudio(t, "a.wav", ""))
	if !errors.Is(err, stt.ErrEmptyAudio) {
		t.Fatalf("err=%v, want ErrEmptyAudio", err)
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	t.Parallel()

	p, _ := whisper.New("http://127.0.0.1:1")
	if _, err := p.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewNative_EmptyPath_ReturnsError(t *testing.T) {
	t.Parallel()
	if _, err := whisper.NewNative(""); err == nil {
		t.Fatal("expected error for empty model path")
	}
}
