package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"edufinanzas/internal/logger"
)

// pngHeader is enough of a PNG for content sniffing
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func multipartRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("nombre_perfil", "Ana")
	if filename != "" {
		fw, err := mw.CreateFormFile("foto_perfil", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/perfil", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatal(err)
	}
	return req
}

func TestReadPhoto(t *testing.T) {
	h := &ProfileHandler{maxUpload: 1024, log: logger.Nop()}

	tests := []struct {
		name     string
		filename string
		content  []byte
		wantNil  bool
		wantErr  error
	}{
		{"no file", "", nil, true, nil},
		{"empty file", "a.png", []byte{}, true, nil},
		{"png", "foto.png", pngHeader, false, nil},
		{"text renamed to png", "foto.png", []byte("hola, no soy una imagen"), true, errPhotoType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			photo, err := h.readPhoto(multipartRequest(t, tt.filename, tt.content))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("readPhoto: %v", err)
			}
			if (photo == nil) != tt.wantNil {
				t.Fatalf("photo = %+v, want nil=%v", photo, tt.wantNil)
			}
			if photo != nil {
				raw, _ := io.ReadAll(photo.Reader)
				if photo.Filename != tt.filename || !bytes.Equal(raw, tt.content) {
					t.Errorf("photo = %q (%d bytes)", photo.Filename, len(raw))
				}
			}
		})
	}
}

func TestReadPhotoRejectsOversizedUpload(t *testing.T) {
	h := &ProfileHandler{maxUpload: 16, log: logger.Nop()}

	_, err := h.readPhoto(multipartRequest(t, "foto.png", append(pngHeader, make([]byte, 64)...)))

	if err == nil || errors.Is(err, errPhotoType) {
		t.Fatalf("err = %v, want size error", err)
	}
}
