package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/fleet-telemetry/internal/entity"
)

// queryLayout is the start/end format of the lookup endpoints (yyyy-MM-dd HH:mm:ss).
const queryLayout = "2006-01-02 15:04:05"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type historyQuery struct {
	group      string
	start, end time.Time
}

func parseHistoryQuery(r *http.Request) (historyQuery, error) {
	q := r.URL.Query()
	hq := historyQuery{group: strings.TrimSpace(q.Get("groupName"))}
	if hq.group == "" {
		return hq, fmt.Errorf("groupName is required")
	}
	var err error
	if hq.start, err = time.ParseInLocation(queryLayout, strings.TrimSpace(q.Get("start")), time.UTC); err != nil {
		return hq, fmt.Errorf("start must be %s", queryLayout)
	}
	if hq.end, err = time.ParseInLocation(queryLayout, strings.TrimSpace(q.Get("end")), time.UTC); err != nil {
		return hq, fmt.Errorf("end must be %s", queryLayout)
	}
	if hq.end.Before(hq.start) {
		return hq, fmt.Errorf("end must not be before start")
	}
	return hq, nil
}

func (s *Server) handleLocationHistory(w http.ResponseWriter, r *http.Request) {
	hq, err := parseHistoryQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	recs, err := s.deps.Store.QueryByVehicleAndTimeRange(r.Context(), hq.group, hq.start, hq.end)
	if err != nil {
		s.logger.Error("server.history.failed", "group_name", hq.group, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []entity.LocationHistory{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Export == nil {
		http.Error(w, "export is not configured", http.StatusNotImplemented)
		return
	}
	hq, err := parseHistoryQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	xlsx, err := s.deps.Export.ExportLocationHistoryXLSX(r.Context(), hq.group, hq.start, hq.end)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "group_name", hq.group, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", hq.group+" location history.xlsx"))
	_, _ = w.Write(xlsx)
}
