package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

var errMissingAudio = errors.New("campo 'audio' obrigatório")

// upload is an audio file spooled to disk for a transcriber.
type upload struct {
	Name string
	Path string
}

// Remove deletes the temporary file.
func (u *upload) Remove() {
	_ = os.Remove(u.Path)
}

// saveUpload copies the multipart file field to a temporary file whose
// extension matches the uploaded name, defaulting to .wav. The caller must
// call Remove on the result.
func saveUpload(r *http.Request, field string) (*upload, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errMissingAudio
		}
		return nil, fmt.Errorf("ler upload: %w", err)
	}
	defer f.Close()

	ext := filepath.Ext(hdr.Filename)
	if ext == "" {
		ext = ".wav"
	}
	tmp, err := os.CreateTemp("", "pronuncia-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("criar arquivo temporário: %w", err)
	}
	u := &upload{Name: hdr.Filename, Path: tmp.Name()}

	_, err = io.Copy(tmp, f)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		u.Remove()
		return nil, fmt.Errorf("gravar upload: %w", err)
	}
	return u, nil
}
