package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/studydeck/internal/askme"
	"github.com/TobiSchelling/studydeck/internal/compose"
	"github.com/TobiSchelling/studydeck/internal/flowchart"
	"github.com/TobiSchelling/studydeck/internal/models"
	"github.com/TobiSchelling/studydeck/internal/pipeline"
)

type generateTestRequest struct {
	Difficulty string `json:"difficulty"`
}

func (s *Server) handleGenerateTest(w http.ResponseWriter, r *http.Request) {
	var req generateTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := models.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	test, err := s.Pipeline.GenerateTestFor(r.Context(), user(r).ID, chi.URLParam(r, "id"), d)
	if err != nil {
		s.notFoundOr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}

type submitTestRequest struct {
	Config    models.TestConfig `json:"testConfig"`
	Questions []models.Question `json:"questions"`
	Answers   []*int            `json:"userAnswers"`
	StartedAt time.Time         `json:"startedAt"`
}

func (s *Server) handleSubmitTest(w http.ResponseWriter, r *http.Request) {
	var req submitTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Config.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "testConfig.documentId is required")
		return
	}

	result, err := s.Pipeline.SubmitTest(r.Context(), user(r).ID, pipeline.Submission{
		Config:    req.Config,
		Questions: req.Questions,
		Answers:   req.Answers,
		StartedAt: req.StartedAt,
	})
	var invalid *pipeline.InvalidSubmissionError
	if errors.As(err, &invalid) {
		writeError(w, http.StatusBadRequest, invalid.Error())
		return
	}
	if err != nil {
		s.notFoundOr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.DB.ListTestResults(user(r).ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type reportResponse struct {
	compose.Report
	HTML string `json:"html"`
}

func (s *Server) handleResultReport(w http.ResponseWriter, r *http.Request) {
	u := user(r)
	result, err := s.DB.GetTestResult(u.ID, chi.URLParam(r, "id"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "Test result not found")
		return
	}
	doc, err := s.DB.GetDocument(u.ID, result.DocumentID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	rep := s.Reports.Compose(r.Context(), doc, result)
	writeJSON(w, http.StatusOK, reportResponse{Report: rep, HTML: renderMarkdown(rep.Markdown)})
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleFlowchart(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	writeJSON(w, http.StatusOK, s.Flowcharts.Generate(r.Context(), req.Prompt))
}

func (s *Server) handleRegenerateFlowchart(w http.ResponseWriter, r *http.Request) {
	var prev models.FlowchartArtifact
	if err := decodeJSON(w, r, &prev); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(prev.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	writeJSON(w, http.StatusOK, s.Flowcharts.Regenerate(r.Context(), prev))
}

func (s *Server) handleExportFlowchart(w http.ResponseWriter, r *http.Request) {
	var a models.FlowchartArtifact
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(a.Program) == "" {
		writeError(w, http.StatusBadRequest, "program is required")
		return
	}

	name := "flowchart.mmd"
	if a.Kind == models.KindText {
		name = "flowchart.txt"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(flowchart.Export(a)))
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	askme.Answer
	ResponseHTML string `json:"response_html"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	a := s.AskMe.Ask(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, askResponse{Answer: a, ResponseHTML: renderMarkdown(a.Response)})
}
