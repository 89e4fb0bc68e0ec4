package server

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/sendrec/videogate/internal/catalog"
	"github.com/sendrec/videogate/internal/gate"
	"github.com/sendrec/videogate/internal/httputil"
	"github.com/sendrec/videogate/internal/i18n"
	"github.com/sendrec/videogate/internal/validate"
)

const maxUnlockBodyBytes = 4 << 10

type unlockRequest struct {
	PIN string `json:"pin"`
}

type unlockResponse struct {
	State        string         `json:"state"`
	Error        string         `json:"error,omitempty"`
	Attempts     int            `json:"attempts"`
	MaxAttempts  int            `json:"maxAttempts"`
	AttemptInfo  string         `json:"attemptInfo,omitempty"`
	Redirect     string         `json:"redirect,omitempty"`
	Cards        []catalog.Card `json:"cards,omitempty"`
	LibraryError string         `json:"libraryError,omitempty"`
}

func (s *Server) language(w http.ResponseWriter, r *http.Request) language.Tag {
	tag, persist := i18n.ResolveTag(r, s.defaultLang)
	if persist {
		i18n.SetLanguageCookie(w, tag, s.secure)
	}
	return tag
}

func (s *Server) renderGate(w http.ResponseWriter, r *http.Request, tag language.Tag, view *pageView, status int) {
	httputil.NoStore(w)
	renderPage(w, status, gatePageTemplate, gatePageData{
		pageBase: newPageBase(tag, httputil.NonceFromContext(r.Context())),
		View:     view,
	})
}

func (s *Server) redirectLockout(w http.ResponseWriter, r *http.Request, target string) {
	httputil.NoStore(w)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Load(w, r)
	if err != nil {
		slog.Error("server: failed to start session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	tag := s.language(w, r)
	view := newPageView(i18n.Printer(tag))
	if state := s.gate.Get(sess).Start(r.Context(), view); state == gate.LockedOut {
		s.redirectLockout(w, r, view.Redirect)
		return
	}
	s.renderGate(w, r, tag, view, http.StatusOK)
}

func (s *Server) handleUnlockForm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Load(w, r)
	if err != nil {
		slog.Error("server: failed to start session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	tag := s.language(w, r)
	printer := i18n.Printer(tag)
	view := newPageView(printer)
	ctrl := s.gate.Get(sess)
	before := ctrl.State()

	candidate := r.PostFormValue("pin")
	if msg := validate.Pin(candidate); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	state, err := ctrl.Submit(r.Context(), candidate, view)
	if errors.Is(err, gate.ErrCheckInProgress) {
		view.ShowGate()
		view.ShowAttemptInfo(ctrl.Attempts(), ctrl.MaxAttempts())
		view.Error = printer.Sprintf("gate.busy")
		s.renderGate(w, r, tag, view, http.StatusConflict)
		return
	}

	switch state {
	case gate.LockedOut:
		if before != gate.LockedOut {
			s.audit.Lockout(r, sess.ID, ctrl.Attempts())
		}
		s.redirectLockout(w, r, view.Redirect)
		return
	case gate.Unlocked:
		if !view.CardsLoaded && view.LibraryError == "" {
			ctrl.Start(r.Context(), view)
		}
	default:
		view.ShowGate()
		if view.AttemptInfo == "" {
			view.ShowAttemptInfo(ctrl.Attempts(), ctrl.MaxAttempts())
		}
	}
	s.renderGate(w, r, tag, view, http.StatusOK)
}

func (s *Server) handleUnlockAPI(w http.ResponseWriter, r *http.Request) {
	httputil.NoStore(w)

	var req unlockRequest
	if err := httputil.DecodeJSON(w, r, &req, maxUnlockBodyBytes); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validate.Pin(req.PIN); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	sess, err := s.sessions.Load(w, r)
	if err != nil {
		slog.Error("server: failed to start session", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	printer := i18n.Printer(s.language(w, r))
	view := newPageView(printer)
	ctrl := s.gate.Get(sess)
	before := ctrl.State()

	state, err := ctrl.Submit(r.Context(), req.PIN, view)
	resp := unlockResponse{
		State:       state.String(),
		Attempts:    ctrl.Attempts(),
		MaxAttempts: ctrl.MaxAttempts(),
	}
	if errors.Is(err, gate.ErrCheckInProgress) {
		resp.Error = printer.Sprintf("gate.busy")
		httputil.WriteJSON(w, http.StatusConflict, resp)
		return
	}

	if state == gate.LockedOut && before != gate.LockedOut {
		s.audit.Lockout(r, sess.ID, resp.Attempts)
	}
	if state == gate.Unlocked && !view.CardsLoaded && view.LibraryError == "" {
		ctrl.Start(r.Context(), view)
	}

	resp.Error = view.Error
	resp.AttemptInfo = view.AttemptInfo
	resp.Redirect = view.Redirect
	resp.Cards = view.Cards
	resp.LibraryError = view.LibraryError
	if resp.AttemptInfo == "" && state == gate.Locked {
		view.ShowAttemptInfo(resp.Attempts, resp.MaxAttempts)
		resp.AttemptInfo = view.AttemptInfo
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) unlocked(r *http.Request) bool {
	sess, ok := s.sessions.Lookup(r)
	return ok && gate.IsUnlocked(sess)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	if !s.unlocked(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	file := r.URL.Query().Get("file")
	if file == "" {
		http.NotFound(w, r)
		return
	}
	video, found, err := s.library.Find(r.Context(), file)
	if err != nil {
		slog.Error("server: failed to load video list", "error", err)
		http.Error(w, "video list unavailable", http.StatusBadGateway)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	videoURL, contentType, err := s.playback(r, video.File)
	if err != nil {
		slog.Error("server: failed to resolve playback url", "file", video.File, "error", err)
		http.NotFound(w, r)
		return
	}

	title := video.Title
	if title == "" {
		title = video.File
	}
	tag := s.language(w, r)
	httputil.NoStore(w)
	renderPage(w, http.StatusOK, playerPageTemplate, playerPageData{
		pageBase:    newPageBase(tag, httputil.NonceFromContext(r.Context())),
		Title:       title,
		VideoURL:    videoURL,
		ContentType: contentType,
	})
}

// playback returns the URL the player should load for file and its content
// type when known.
func (s *Server) playback(r *http.Request, file string) (string, string, error) {
	contentType := mime.TypeByExtension(path.Ext(file))

	switch {
	case s.media != nil:
		key := s.media.MediaKey(file)
		_, stored, err := s.media.HeadObject(r.Context(), key)
		if err != nil {
			return "", "", err
		}
		if stored != "" {
			contentType = stored
		}
		u, err := s.media.GenerateDownloadURL(r.Context(), key, playbackURLExpiry)
		if err != nil {
			return "", "", err
		}
		return u, contentType, nil
	case s.mediaDir != "":
		return (&url.URL{Path: "/media/" + strings.TrimPrefix(file, "/")}).String(), contentType, nil
	default:
		return (&url.URL{Path: file}).String(), contentType, nil
	}
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if !s.unlocked(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	file := chi.URLParam(r, "*")
	listed, err := s.library.Contains(r.Context(), file)
	if err != nil {
		slog.Error("server: failed to load video list", "error", err)
		http.Error(w, "video list unavailable", http.StatusBadGateway)
		return
	}
	if !listed {
		http.NotFound(w, r)
		return
	}

	httputil.NoStore(w)
	http.ServeFile(w, r, filepath.Join(s.mediaDir, filepath.FromSlash(path.Clean("/"+file))))
}

func (s *Server) handleLockout(w http.ResponseWriter, r *http.Request) {
	tag := s.language(w, r)
	httputil.NoStore(w)
	renderPage(w, http.StatusOK, lockoutPageTemplate, lockoutPageData{
		pageBase: newPageBase(tag, httputil.NonceFromContext(r.Context())),
	})
}
