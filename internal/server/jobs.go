package server

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/joseph-ayodele/fleet-telemetry/internal/services"
)

const (
	maxRequestBytes = 1 << 20
	maxUploadBytes  = 64 << 20
)

func (s *Server) handleProcess(kind string, job JobService, aliases services.FolderAliases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if job == nil {
			writeJSON(w, http.StatusNotImplemented, services.Response{Message: kind + " job is not configured"})
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, services.Response{Message: fmt.Sprintf("Error reading request: %v", err)})
			return
		}
		req, err := services.DecodeProcessRequest(body, aliases)
		if err != nil {
			s.logger.Warn("server.process.bad_request", "kind", kind, "error", err)
			writeJSON(w, http.StatusBadRequest, services.Response{Message: err.Error()})
			return
		}

		resp := s.runJob(r.Context(), job, req)
		status := http.StatusOK
		if !resp.Success {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, resp)
	}
}

func (s *Server) handleMasterExcel(w http.ResponseWriter, r *http.Request) {
	if s.deps.Audit == nil {
		http.Error(w, "audit job is not configured", http.StatusNotImplemented)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid upload: %v", err), http.StatusBadRequest)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	out, sum, err := s.deps.Audit.ProcessWorkbook(r.Context(), file)
	if err != nil {
		s.logger.Error("server.audit.failed", "file", hdr.Filename, "error", err)
		http.Error(w, fmt.Sprintf("Error processing audit workbook: %v", err), http.StatusInternalServerError)
		return
	}
	s.logger.Info("server.audit.ok", "file", hdr.Filename, "rows", sum.Rows, "matched", sum.Matched)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "processed_"+filepath.Base(hdr.Filename)))
	_, _ = w.Write(out)
}
