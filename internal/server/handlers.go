package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/genregraph/pkg/buildinfo"
	apperr "github.com/matzehuels/genregraph/pkg/errors"
	"github.com/matzehuels/genregraph/pkg/graph"
	"github.com/matzehuels/genregraph/pkg/render"
	"github.com/matzehuels/genregraph/pkg/shell"
	"github.com/matzehuels/genregraph/pkg/truncate"
	"github.com/matzehuels/genregraph/pkg/visual"
)

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.GetCode(err)
	if code == "" {
		code = apperr.ErrCodeInternal
	}
	msg := apperr.UserMessage(err)
	if status >= 500 {
		s.logger.Error("request failed", "code", code, "err", err)
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: string(code), Message: msg})
}

// =============================================================================
// Status
// =============================================================================

type healthResponse struct {
	Status     string `json:"status"`
	Generation string `json:"generation,omitempty"`
	DumpDate   string `json:"dump_date,omitempty"`
	Nodes      int    `json:"nodes"`
	Links      int    `json:"links"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) health() (healthResponse, bool) {
	sh := s.holder.Current()
	if sh == nil {
		return healthResponse{Status: "loading"}, false
	}
	ds := sh.Dataset()
	resp := healthResponse{
		Status:     "ok",
		Generation: sh.Generation(),
		DumpDate:   ds.DumpDate,
		Nodes:      len(ds.Nodes),
		Links:      len(ds.Links),
	}
	if err := sh.LoadError(); err != nil {
		resp.Status = "degraded"
		resp.Error = apperr.UserMessage(err)
		return resp, false
	}
	return resp, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp, _ := s.health()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.health()
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Resolve())
}

// =============================================================================
// Dataset
// =============================================================================

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, visual.Legend())
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	data, err := graph.Marshal(shellFrom(r).Dataset())
	if err != nil {
		s.respondError(w, apperr.Wrap(apperr.ErrCodeInternal, err, "encode dataset"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleGraphSVG(w http.ResponseWriter, r *http.Request) {
	sh := shellFrom(r)
	opts := s.opts.Render
	opts.Formats = []string{render.FormatSVG}
	opts.Logger = s.logger

	q := r.URL.Query()
	if e := q.Get("engine"); e != "" {
		opts.Engine = e
	}
	if v := q.Get("labels"); v != "" {
		labels, err := strconv.ParseBool(v)
		if err != nil {
			s.respondError(w, apperr.New(apperr.ErrCodeInvalidInput, "labels must be a boolean"))
			return
		}
		opts.Labels = labels
	}

	artifacts, err := s.opts.Runner.Render(r.Context(), sh.Dataset(), opts)
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(artifacts[render.FormatSVG])
}

type nodeSummary struct {
	ID     string          `json:"id"`
	Label  string          `json:"label"`
	Degree int             `json:"degree"`
	Style  shell.NodeStyle `json:"style"`
}

func summarize(sh *shell.Shell, n graph.Node) nodeSummary {
	return nodeSummary{ID: n.ID, Label: n.DisplayLabel(), Degree: n.Degree, Style: sh.Style(n)}
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	sh := shellFrom(r)
	nodes := sh.Dataset().Nodes
	out := make([]nodeSummary, len(nodes))
	for i, n := range nodes {
		out[i] = summarize(sh, n)
	}
	writeJSON(w, http.StatusOK, out)
}

type linkView struct {
	graph.Link
	Color string `json:"color"`
}

type nodeResponse struct {
	nodeSummary
	PageTitle        string     `json:"page_title,omitempty"`
	LastRevisionDate *time.Time `json:"last_revision_date,omitempty"`
	Outgoing         []linkView `json:"outgoing"`
	Incoming         []linkView `json:"incoming"`
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	sh := shellFrom(r)
	n, err := sh.Node(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	out, in := sh.Dataset().LinksOf(n.ID)
	writeJSON(w, http.StatusOK, nodeResponse{
		nodeSummary:      summarize(sh, *n),
		PageTitle:        n.PageTitle,
		LastRevisionDate: n.LastRevisionDate,
		Outgoing:         colourLinks(sh, out),
		Incoming:         colourLinks(sh, in),
	})
}

func colourLinks(sh *shell.Shell, links []graph.Link) []linkView {
	out := make([]linkView, len(links))
	for i, l := range links {
		out[i] = linkView{Link: l, Color: sh.Scheme().LinkColor(l).CSS()}
	}
	return out
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	expanded, err := boolParam(q.Get("expanded"), false)
	if err != nil {
		s.respondError(w, apperr.New(apperr.ErrCodeInvalidInput, "expanded must be a boolean"))
		return
	}
	expandable, err := boolParam(q.Get("expandable"), true)
	if err != nil {
		s.respondError(w, apperr.New(apperr.ErrCodeInvalidInput, "expandable must be a boolean"))
		return
	}

	view, err := shellFrom(r).Describe(chi.URLParam(r, "id"), truncate.State{Expanded: expanded}, expandable)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func boolParam(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}
