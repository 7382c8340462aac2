package web

// handlers_common.go holds request parsing shared by the handlers.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

// multipartOverhead is the room left above the file size limit for the
// other form fields and the multipart framing.
const multipartOverhead = 1 << 20

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// listQuery reads page, limit and the search term from the query string.
func listQuery(r *http.Request, searchParam string) core.ListQuery {
	q := core.ListQuery{
		Page:  parseIntParam(r, "page", 1),
		Limit: parseIntParam(r, "limit", core.DefaultPageSize),
	}
	if searchParam != "" {
		q.Search = r.URL.Query().Get(searchParam)
	}
	return q
}

// pathEntity resolves the {entity} URL parameter.
func pathEntity(r *http.Request) (core.Entity, error) {
	raw := chi.URLParam(r, "entity")
	entity, ok := core.ParseEntity(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownEntity, raw)
	}
	return entity, nil
}

// upload is a file read from a multipart request.
type upload struct {
	FileName string
	Data     []byte
	Format   string
	UserID   string
}

// readUpload reads the "file" field of a multipart form. Only .csv and .txt
// files up to maxSize bytes are accepted.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return upload{}, &core.FileError{Reason: fmt.Sprintf("file too large: exceeds the %d byte limit", maxSize)}
		}
		return upload{}, &core.FileError{Reason: "no file provided: " + err.Error()}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, &core.FileError{Reason: "no file provided"}
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".txt" {
		return upload{}, &core.FileError{Reason: fmt.Sprintf("unsupported file type %q", ext)}
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return upload{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return upload{}, &core.FileError{Reason: fmt.Sprintf("file too large: exceeds the %d byte limit", maxSize)}
	}

	return upload{
		FileName: header.Filename,
		Data:     data,
		Format:   r.FormValue("format"),
		UserID:   strings.TrimSpace(r.FormValue("user_id")),
	}, nil
}

// jsonText accepts a JSON string, number or null and keeps its text, so
// payload rows validate the same way file lines do.
type jsonText string

func (t *jsonText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = jsonText(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected a string or a number, got %s", b)
		}
		*t = jsonText(n.String())
	}
	return nil
}

func (t jsonText) String() string {
	return strings.TrimSpace(string(t))
}
