package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/KaramelBytes/sopdash/internal/analysis"
	"github.com/KaramelBytes/sopdash/internal/export"
	"github.com/KaramelBytes/sopdash/internal/survey"
)

// filterFromQuery reads repeatable dimension parameters (region, industry, revenue_band,
// maturity). Other parameters are ignored.
func filterFromQuery(q url.Values) analysis.Filter {
	f := analysis.Filter{}
	for key, vals := range q {
		if field, ok := analysis.ParseDimension(key); ok {
			f.Add(field, vals...)
		}
	}
	return f
}

func (s *Server) rows(r *http.Request) ([]survey.Row, analysis.Filter) {
	f := filterFromQuery(r.URL.Query())
	return analysis.Apply(s.ds.Rows, f), f
}

// intParam returns the non-negative integer query parameter key, or def when absent.
func intParam(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key + ": " + v)
	}
	return n, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rows": len(s.ds.Rows)})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rows, f := s.rows(r)
	numeric := make([]analysis.NumSummary, 0, len(survey.NumericFields))
	for _, field := range survey.NumericFields {
		numeric = append(numeric, analysis.Describe(rows, field, s.opt.OutlierThreshold))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":         s.name,
		"run":          s.ds.Summary,
		"filter":       f.String(),
		"total_rows":   len(s.ds.Rows),
		"matched_rows": len(rows),
		"numeric":      numeric,
	})
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	rows, _ := s.rows(r)
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	total := len(rows)
	if offset > total {
		offset = total
	}
	page := rows[offset:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"total":  total,
		"offset": offset,
		"rows":   page,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	rows, _ := s.rows(r)
	metric := s.opt.LeaderboardMetric
	if m := r.URL.Query().Get("metric"); m != "" {
		field, ok := survey.ParseField(m)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown metric: "+m)
			return
		}
		metric = field
	}
	limit, err := intParam(r, "limit", s.opt.TopN)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := analysis.Leaderboard(rows, metric, limit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"metric": metric, "entries": entries})
}

func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	rows, _ := s.rows(r)
	m := analysis.Correlations(rows, survey.NumericFields)
	s.writeJSON(w, http.StatusOK, map[string]any{"matrix": m, "top_pairs": m.TopPairs(10)})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "field")
	field, ok := analysis.ParseDimension(name)
	if !ok {
		field, ok = survey.ParseField(name)
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown field: "+name)
		return
	}
	rows, _ := s.rows(r)
	d, err := analysis.DistributionFor(rows, field)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleChallenges(w http.ResponseWriter, r *http.Request) {
	rows, _ := s.rows(r)
	limit, err := intParam(r, "limit", s.opt.TopN)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, analysis.TopChallenges(rows, limit))
}

func (s *Server) report(r *http.Request) (*analysis.Report, error) {
	opt := s.opt
	opt.Filter = filterFromQuery(r.URL.Query())
	return analysis.Analyze(s.name, s.ds, opt)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.report(r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	rep, err := s.report(r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(rep.Markdown()))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, _ := s.rows(r)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="standardized.csv"`)
	if err := export.WriteCSV(w, rows); err != nil {
		s.logger.Error("export csv", zap.Error(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
