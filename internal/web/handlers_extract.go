package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/payrollx/internal/core"
)

// maxFormMemory is the multipart size kept in memory; larger files spill to disk.
const maxFormMemory = 8 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// extractResponse is the body of POST /api/extract.
type extractResponse struct {
	Summary core.RunSummary        `json:"summary"`
	Result  *core.ExtractionResult `json:"result"`
	Empty   bool                   `json:"empty"`
	Message string                 `json:"message,omitempty"`
}

// handleExtract runs a multipart "file" upload through the pipeline and
// returns the full result. A file with no extractable rows is still a 200.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	run, ok := s.extract(w, r)
	if !ok {
		return
	}

	resp := extractResponse{Summary: run.Summary, Result: run.Result, Empty: run.Result.Empty()}
	if resp.Empty {
		resp.Message = "No employee rows could be extracted; see failed rows for reasons"
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDownload returns the normalized rows as csv (default) or xlsx.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		respondError(w, r, fmt.Errorf("%w %q", errUnknownExportFormat, format), http.StatusBadRequest)
		return
	}

	run, ok := s.extract(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	var err error
	contentType := "text/csv; charset=utf-8"
	if format == "xlsx" {
		contentType = xlsxContentType
		err = core.WriteWorkbook(&buf, s.service.Fields(), run.Result.Rows)
	} else {
		err = core.WriteCSV(&buf, s.service.Fields(), run.Result.Rows)
	}
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	setRunHeaders(w, run)
	sendFile(w, contentType, s.service.OutputFilename(run.Summary.FileName, "."+format), &buf)
}

// handleFailedRows returns the failed rows of an extraction as CSV.
func (s *Server) handleFailedRows(w http.ResponseWriter, r *http.Request) {
	run, ok := s.extract(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := core.WriteFailedCSV(&buf, run.Result.Failed); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	setRunHeaders(w, run)
	sendFile(w, "text/csv; charset=utf-8", core.OutputFilename(run.Summary.FileName, "_failed", ".csv"), &buf)
}

// extract reads the upload and runs it. On failure the error response has
// been written and ok is false.
func (s *Server) extract(w http.ResponseWriter, r *http.Request) (*core.Run, bool) {
	name, file, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return nil, false
	}
	defer file.Close()

	r = withClient(r)
	run, err := s.service.Extract(r.Context(), name, file)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return nil, false
	}
	return run, true
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, io.ReadCloser, error) {
	limit := s.service.MaxFileSize()
	// Allow for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || strings.Contains(err.Error(), "request body too large") {
			return "", nil, fmt.Errorf("%w (limit %d bytes)", core.ErrFileTooLarge, limit)
		}
		return "", nil, fmt.Errorf("%w: %v", errNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errNoFile
	}
	return header.Filename, file, nil
}

func setRunHeaders(w http.ResponseWriter, run *core.Run) {
	w.Header().Set("X-Run-ID", run.Summary.ID.String())
	w.Header().Set("X-Extraction-Stage", string(run.Summary.Stage))
	w.Header().Set("X-Rows-Accepted", strconv.Itoa(run.Summary.Accepted))
	w.Header().Set("X-Rows-Failed", strconv.Itoa(run.Summary.Failed))
}

func sendFile(w http.ResponseWriter, contentType, filename string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

// fieldsResponse is the body of GET /api/fields.
type fieldsResponse struct {
	Fields        []core.CanonicalField `json:"fields"`
	OutputColumns []core.FieldName      `json:"outputColumns"`
	Formats       []string              `json:"formats"`
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	fields := s.service.Fields()
	writeJSON(w, http.StatusOK, fieldsResponse{
		Fields:        fields.Fields(),
		OutputColumns: fields.OutputColumns(),
		Formats:       core.SupportedExtensions(),
	})
}

// handleRuns lists recent runs, newest first. ?limit= caps the count.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)
	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleStatus reports extraction slot usage.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseIntParam reads a positive integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}
