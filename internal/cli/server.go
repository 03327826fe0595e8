package cli

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/matzehuels/phylogram/pkg/buildinfo"
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/pipeline"
	"github.com/matzehuels/phylogram/pkg/session"
)

// maxBodyBytes caps request bodies, which carry inline trees and mappings.
const maxBodyBytes = 16 << 20

// contentTypes maps output formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
}

// server exposes tree sessions over HTTP.
type server struct {
	store  session.Store
	runner *pipeline.Runner
	logger *log.Logger
	ttl    time.Duration
}

// sessionInfo describes a session in responses.
type sessionInfo struct {
	ID        string           `json:"id"`
	ExpiresAt time.Time        `json:"expires_at"`
	Leaves    int              `json:"leaves"`
	Nodes     int              `json:"nodes"`
	Columns   []string         `json:"columns,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
	Options   pipeline.Options `json:"options"`
	Change    string           `json:"change,omitempty"`
}

type errorBody struct {
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

// routes builds the router.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Current().Version})
	})
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Patch("/", s.handlePatch)
			r.Delete("/", s.handleDelete)
			r.Get("/{format}", s.handleRender)
		})
	})
	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

// handleCreate loads a tree into a new session. The body is a JSON options
// object with inline "newick" and "mapping" text or http(s) sources.
func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decodeBody(r, &opts); err != nil {
		writeError(w, err)
		return
	}
	for _, src := range []string{opts.Tree, opts.MappingFile} {
		if src != "" && !pipeline.IsURL(src) {
			writeError(w, errors.New(errors.ErrCodeInvalidPath, "server sources must be http(s) URLs, got %q", src))
			return
		}
	}
	opts.Logger = s.logger

	sess, err := session.New(s.runner, opts, s.ttl)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Load(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("created session", "id", sess.ID, "source", opts.Source())
	writeJSON(w, http.StatusCreated, describe(sess, session.None))
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describe(sess, session.None))
}

// handlePatch merges a JSON options object into the session options and
// reports whether the tree was laid out again or only restyled.
func (s *server) handlePatch(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	next := sess.Options()
	if err := decodeBody(r, &next); err != nil {
		writeError(w, err)
		return
	}
	change, err := s.apply(r.Context(), sess, next)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describe(sess, change))
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRender draws the session in the requested format. Query parameters
// override options first, as PATCH would.
func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	change := session.None
	if len(r.URL.Query()) > 0 {
		next := sess.Options()
		if err := applyQuery(&next, r.URL.Query()); err != nil {
			writeError(w, err)
			return
		}
		if change, err = s.apply(r.Context(), sess, next); err != nil {
			writeError(w, err)
			return
		}
	}

	data, err := sess.Render(r.Context(), format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("X-Phylogram-Change", change.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// apply changes the session options and stores the session again.
func (s *server) apply(ctx context.Context, sess *session.Session, next pipeline.Options) (session.Change, error) {
	change, err := sess.Apply(ctx, next)
	if err != nil {
		return session.None, err
	}
	if change != session.None {
		s.logger.Debug("applied options", "id", sess.ID, "change", change)
	}
	if err := s.store.Set(ctx, sess); err != nil {
		return change, err
	}
	return change, nil
}

// applyQuery sets options from URL query parameters named like the JSON
// option keys.
func applyQuery(opts *pipeline.Options, q url.Values) error {
	for key := range q {
		v := q.Get(key)
		var err error
		switch key {
		case "tree_type":
			opts.TreeType = v
		case "leaf_color_column":
			opts.LeafColorColumn = v
		case "background_color_column":
			opts.BackgroundColorColumn = v
		case "title":
			opts.Title = v
		case "leaf_radius":
			opts.LeafRadius, err = strconv.ParseFloat(v, 64)
		case "min_leaf_separation":
			opts.MinLeafSeparation, err = strconv.ParseFloat(v, 64)
		case "width":
			opts.Width, err = strconv.ParseFloat(v, 64)
		case "height":
			opts.Height, err = strconv.ParseFloat(v, 64)
		case "png_scale":
			opts.PNGScale, err = strconv.ParseFloat(v, 64)
		case "skip_branch_length_scaling":
			opts.SkipBranchLengthScaling, err = strconv.ParseBool(v)
		case "skip_labels":
			opts.SkipLabels, err = strconv.ParseBool(v)
		case "skip_distance_labels":
			opts.SkipDistanceLabels, err = strconv.ParseBool(v)
		case "hide_ruler":
			opts.HideRuler, err = strconv.ParseBool(v)
		default:
			return errors.New(errors.ErrCodeInvalidOption, "unknown option %q", key)
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidOption, err, "option %s", key)
		}
	}
	return nil
}

func describe(sess *session.Session, change session.Change) sessionInfo {
	info := sessionInfo{
		ID:        sess.ID,
		ExpiresAt: sess.ExpiresAt,
		Options:   sess.Options(),
	}
	if change != session.None {
		info.Change = change.String()
	}
	if in := sess.Input(); in != nil {
		info.Leaves = len(in.Tree.Leaves())
		info.Nodes = in.Tree.Len()
		info.Columns = in.Table.Columns()
		for _, w := range in.Warnings {
			info.Warnings = append(info.Warnings, errors.UserMessage(w))
		}
	}
	return info
}

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(data) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps error codes to HTTP statuses.
func statusOf(code errors.Code) int {
	switch code {
	case errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeStaleLoad:
		return http.StatusConflict
	case errors.ErrCodeInputNotFound:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidTreeType, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidOption, errors.ErrCodeInvalidPath, errors.ErrCodeMalformedTree,
		errors.ErrCodeMetadataParse, errors.ErrCodeUnknownColorColumn:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusOf(code), errorBody{Code: code, Error: errors.UserMessage(err)})
}

// sweep removes expired sessions every interval until ctx ends.
func (s *server) sweep(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.store.Cleanup(ctx); err != nil {
				s.logger.Warn("session cleanup failed", "err", err)
			}
		}
	}
}
