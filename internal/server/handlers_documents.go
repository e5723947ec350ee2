package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/studydeck/internal/extract"
	"github.com/TobiSchelling/studydeck/internal/ingest"
	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/pipeline"
)

// multipartOverhead is the allowance for form boundaries and headers on
// top of the file size limit.
const multipartOverhead = 1 << 20

// documentListItem is a document without its content.
type documentListItem struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	MediaType  string                  `json:"type"`
	Size       int64                   `json:"size"`
	UploadedAt time.Time               `json:"upload_date"`
	Summary    *models.DocumentSummary `json:"summary,omitempty"`
}

type uploadResponse struct {
	Document       *models.Document  `json:"document"`
	Questions      []models.Question `json:"questions,omitempty"`
	QuestionSource models.Source     `json:"questionSource,omitempty"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.DB.ListDocuments(user(r).ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	items := make([]documentListItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, documentListItem{
			ID:         d.ID,
			Name:       d.Name,
			MediaType:  d.MediaType,
			Size:       d.Size,
			UploadedAt: d.UploadedAt,
			Summary:    d.Summary,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge,
				(&ingest.TooLargeError{Size: r.ContentLength, Max: s.MaxUploadBytes}).Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Expected a multipart upload with a 'file' field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Expected a multipart upload with a 'file' field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	var d models.Difficulty
	if v := r.FormValue("difficulty"); v != "" {
		if d, err = models.ParseDifficulty(v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	up := ingest.Upload{
		Name:      header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Data:      data,
	}
	res, err := s.Pipeline.Process(r.Context(), user(r).ID, up, d)
	if err != nil {
		s.ingestError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{
		Document:       res.Document,
		Questions:      res.Questions,
		QuestionSource: res.QuestionSource,
	})
}

// ingestError maps ingestion failures to a status and shows their message
// unchanged.
func (s *Server) ingestError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		tooLarge    *ingest.TooLargeError
		unsupported *ingest.UnsupportedFormatError
		extraction  *extract.ExtractionError
		tooShort    *ingest.TooShortError
	)
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.As(err, &unsupported):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.As(err, &extraction), errors.As(err, &tooShort):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.DB.GetDocument(user(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ok, err := s.DB.DeleteDocument(user(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDocumentResults(w http.ResponseWriter, r *http.Request) {
	u := user(r)
	id := chi.URLParam(r, "id")
	doc, err := s.DB.GetDocument(u.ID, id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	results, err := s.DB.ListTestResultsForDocument(u.ID, id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) notFoundOr(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, pipeline.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	s.internalError(w, r, err)
}
