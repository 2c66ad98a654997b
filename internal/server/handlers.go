package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/flow"
)

// errFileOverReply is returned when a file path is given as a reply instead of an upload.
var errFileOverReply = errors.New("archives must be sent to the file endpoint")

type platformView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type exitView struct {
	Code int    `json:"code"`
	Info string `json:"info"`
}

type sessionView struct {
	ID       string        `json:"id"`
	Platform string        `json:"platform"`
	Stage    string        `json:"stage"`
	Request  *flow.Request `json:"request,omitempty"`
	Exit     *exitView     `json:"exit,omitempty"`
	// Error reports donations lost while applying the last reply.
	Error string `json:"error,omitempty"`
}

func viewOf(e *entry) sessionView {
	v := sessionView{
		ID:       e.session.ID(),
		Platform: e.platform,
		Stage:    e.session.State().Stage.String(),
		Request:  e.session.Request(),
	}
	if exit := e.session.Exit(); exit != nil {
		v.Exit = &exitView{Code: exit.Code, Info: exit.Info}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) listPlatforms(w http.ResponseWriter, _ *http.Request) {
	views := []platformView{}
	for _, p := range s.platforms.All() {
		if !s.cm.Allowed(p.ID()) {
			continue
		}
		views = append(views, platformView{ID: p.ID(), Name: p.Name()})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("platform")
	p, err := s.platforms.Lookup(id)
	if err != nil {
		http.Error(w, "Unknown platform", http.StatusNotFound)
		s.log.Warn("Session requested for unknown platform", "platform", id)
		return
	}
	if !s.cm.Allowed(id) {
		http.Error(w, "Platform not allowed", http.StatusForbidden)
		s.log.Warn("Session requested for platform outside the allow-list", "platform", id)
		return
	}

	e, err := s.startSession(r.Context(), p)
	if err != nil {
		s.log.Error("Could not start session", "platform", id, "err", err)
		http.Error(w, "Could not start session", http.StatusInternalServerError)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	writeJSON(w, http.StatusCreated, viewOf(e))
}

func (s *Server) startSession(ctx context.Context, p extract.Platform) (*entry, error) {
	machineOpts := []flow.Options{}
	if s.questionnaire != nil {
		machineOpts = append(machineOpts, flow.WithQuestionnaire(*s.questionnaire))
	}
	session := flow.NewSession(p, s.sink,
		flow.WithLogHandler(s.log.Handler()),
		flow.WithMachineOptions(machineOpts...),
	)

	dir := filepath.Join(s.uploadDir, session.ID())
	e := &entry{session: session, platform: p.ID(), uploadDir: dir}

	if _, err := session.Start(ctx); err != nil {
		return nil, err
	}

	s.sessions.add(e)
	s.metrics.Started(p.ID())
	s.log.Info("Session started", "session", session.ID(), "platform", p.ID())
	return e, nil
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	writeJSON(w, http.StatusOK, viewOf(e))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.remove(r.PathValue("id")); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if s.maxUploadBytes > 0 {
		if r.ContentLength > s.maxUploadBytes {
			http.Error(w, "Archive too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Archive too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Missing archive in form field \"file\"", http.StatusBadRequest)
		return
	}
	defer f.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		http.Error(w, ErrSessionNotFound.Error(), http.StatusNotFound)
		return
	}
	if stage := e.session.State().Stage; stage != flow.AwaitingFile {
		http.Error(w, fmt.Sprintf("Session is not waiting for a file but is %s", stage), http.StatusConflict)
		return
	}

	path, err := saveUpload(e.uploadDir, f)
	if err != nil {
		s.log.Error("Could not save upload", "session", e.session.ID(), "err", err)
		http.Error(w, "Could not save archive", http.StatusInternalServerError)
		return
	}
	s.log.Debug("Archive uploaded", "session", e.session.ID(), "path", path)

	s.applyReply(r.Context(), w, e, flow.String(path), true)
}

// saveUpload copies the archive read from r to a new file under dir.
func saveUpload(dir string, r io.Reader) (path string, err error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, "archive-*.zip")
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var p flow.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s.applyReply(r.Context(), w, e, p, false)
}

// applyReply answers the pending request of e with p and writes the new view. e must be locked.
func (s *Server) applyReply(ctx context.Context, w http.ResponseWriter, e *entry, p flow.Payload, uploaded bool) {
	v, err := s.step(ctx, e, p, uploaded)
	switch {
	case errors.Is(err, errFileOverReply):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, flow.ErrSessionDone):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		writeJSON(w, http.StatusBadGateway, v)
	default:
		writeJSON(w, http.StatusOK, v)
	}
}

// step replies p to the session of e and returns its new view. e must be locked.
// A file path is only accepted when it comes from an upload, so clients cannot point the flow at server files.
// Uploads are discarded as soon as the flow no longer reads the archive.
func (s *Server) step(ctx context.Context, e *entry, p flow.Payload, uploaded bool) (sessionView, error) {
	if e.removed {
		return sessionView{}, ErrSessionNotFound
	}
	if !uploaded && p.Kind == flow.PayloadString && e.session.State().Stage == flow.AwaitingFile {
		return sessionView{}, errFileOverReply
	}

	t, err := e.session.Reply(ctx, p)
	if errors.Is(err, flow.ErrSessionDone) {
		return sessionView{}, err
	}
	if e.session.State().Stage != flow.AwaitingChoice {
		e.discardUploads(s.log)
	}
	if t.Exit != nil {
		s.metrics.Finished(e.platform)
		s.log.Info("Session done", "session", e.session.ID(), "platform", e.platform)
	}

	v := viewOf(e)
	if err != nil {
		s.log.Error("Donation failed", "session", e.session.ID(), "err", err)
		v.Error = "donation failed"
	}
	return v, err
}
