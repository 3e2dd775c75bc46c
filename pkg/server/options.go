package server

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-modelform/pkg/form"
)

// Option search limits for picker fields.
const (
	DefaultOptionLimit = 20
	MaxOptionLimit     = 100
)

// OptionsResponse lists the picker options matching a search.
type OptionsResponse struct {
	Data []form.Option `json:"data"`
}

// handleOptions searches the options of an enum or reference picker. Only
// candidates that pass the field's filter are offered.
// GET /forms/{session}/fields/{field}/options?q=&limit=
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "field")
	binding, err := sess.Binding(name)
	if err != nil {
		writeError(w, s.logger, http.StatusNotFound, "UNKNOWN_FIELD", "unknown field "+name)
		return
	}
	if binding.Kind != form.KindEnum && binding.Kind != form.KindReferenceSingle {
		writeError(w, s.logger, http.StatusNotFound, "NO_OPTIONS", fmt.Sprintf("%s is not a picker", name))
		return
	}

	query := r.URL.Query()
	results := searchOptions(binding.Options, query.Get("q"), parseLimit(query.Get("limit")))
	if results == nil {
		results = []form.Option{}
	}
	writeJSON(w, s.logger, http.StatusOK, OptionsResponse{Data: results})
}

// searchOptions returns options whose label contains query, prefix matches
// first. An empty query returns the leading options.
func searchOptions(options []form.Option, query string, limit int) []form.Option {
	limit = clampLimit(limit)
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if len(options) <= limit {
			return append([]form.Option(nil), options...)
		}
		return append([]form.Option(nil), options[:limit]...)
	}

	matches := make([]matchedOption, 0, len(options))
	for i, option := range options {
		label := strings.ToLower(option.Label)
		if !strings.Contains(label, query) {
			continue
		}
		matches = append(matches, matchedOption{
			option:   option,
			index:    i,
			isPrefix: strings.HasPrefix(label, query),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].index < matches[j].index
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]form.Option, 0, len(matches))
	for _, match := range matches {
		out = append(out, match.option)
	}
	return out
}

type matchedOption struct {
	option   form.Option
	index    int
	isPrefix bool
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultOptionLimit
	}
	if limit > MaxOptionLimit {
		return MaxOptionLimit
	}
	return limit
}

func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
