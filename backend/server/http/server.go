package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/adwski/chat-client/backend/content"
	"github.com/adwski/chat-client/backend/service"
	"github.com/rs/zerolog"
)

const (
	defaultShutdownDeadline = 10 * time.Second
	defaultMaxBodySize      = 16 * 1024
)

var (
	ErrUnexpected = errors.New("unexpected server error")
)

// ChatService is what the presentation layer may do with the chat session.
type ChatService interface {
	View() service.View
	SubmitMessage(text string) error
	SetDraft(text string) error
	ToggleEmojiPicker() error
	PickEmoji(glyph string) error
}

type TextRequest struct {
	Text string `json:"text"`
}

type EmojiRequest struct {
	Glyph string `json:"glyph"`
}

type GenericResponse struct {
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type Server struct {
	logger zerolog.Logger
	svc    ChatService
	*http.Server
}

type Config struct {
	Logger      *zerolog.Logger
	ChatService ChatService
	ListenAddr  string
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		logger: cfg.Logger.With().Str("component", "api-server").Logger(),
		svc:    cfg.ChatService,
	}

	r := http.NewServeMux()
	r.HandleFunc("GET /api/view", srv.view)
	r.HandleFunc("GET /api/emojis", srv.emojis)
	r.HandleFunc("POST /api/message", srv.submitMessage)
	r.HandleFunc("POST /api/draft", srv.setDraft)
	r.HandleFunc("POST /api/emoji", srv.pickEmoji)
	r.HandleFunc("POST /api/picker", srv.togglePicker)
	r.HandleFunc("OPTIONS /", corsHandler)

	srv.Server = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	return srv
}

func corsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) view(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	srv.respond(w, http.StatusOK, &GenericResponse{Data: srv.svc.View()})
}

func (srv *Server) emojis(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	srv.respond(w, http.StatusOK, &GenericResponse{Data: content.Emojis})
}

func (srv *Server) submitMessage(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !srv.readJSON(w, r, &req) {
		return
	}
	srv.logger.Trace().Any("request", req).Msg("got submit request")
	srv.accepted(w, srv.svc.SubmitMessage(req.Text))
}

func (srv *Server) setDraft(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if !srv.readJSON(w, r, &req) {
		return
	}
	srv.accepted(w, srv.svc.SetDraft(req.Text))
}

func (srv *Server) pickEmoji(w http.ResponseWriter, r *http.Request) {
	var req EmojiRequest
	if !srv.readJSON(w, r, &req) {
		return
	}
	if req.Glyph == "" {
		srv.respond(w, http.StatusBadRequest, &GenericResponse{Error: "glyph is required"})
		return
	}
	srv.accepted(w, srv.svc.PickEmoji(req.Glyph))
}

func (srv *Server) togglePicker(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	srv.accepted(w, srv.svc.ToggleEmojiPicker())
}

func (srv *Server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	body, err := io.ReadAll(io.LimitReader(r.Body, defaultMaxBodySize))
	defer func() {
		_ = r.Body.Close()
	}()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return false
	}
	if err = json.Unmarshal(body, dst); err != nil {
		srv.respond(w, http.StatusBadRequest, &GenericResponse{Error: err.Error()})
		return false
	}
	return true
}

func (srv *Server) accepted(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		srv.respond(w, http.StatusAccepted, &GenericResponse{Message: "OK"})
	case errors.Is(err, service.ErrQueueFull), errors.Is(err, service.ErrStopped):
		srv.logger.Warn().Err(err).Msg("action rejected")
		srv.respond(w, http.StatusServiceUnavailable, &GenericResponse{Error: err.Error()})
	default:
		srv.logger.Error().Err(err).Msg("action failed")
		srv.respond(w, http.StatusInternalServerError, &GenericResponse{Error: err.Error()})
	}
}

func (srv *Server) respond(w http.ResponseWriter, code int, resp *GenericResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		srv.logger.Error().Err(err).Msg("failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeBytes(w, code, b, &srv.logger)
}

func writeBytes(w http.ResponseWriter, code int, b []byte, logger *zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(code)
	if _, err := w.Write(b); err != nil {
		logger.Error().Err(err).Msg("failed to write response")
	}
}

func (srv *Server) Run(ctx context.Context, wg *sync.WaitGroup, errc chan<- error) {
	defer func() {
		srv.logger.Debug().Msg("server stopped")
		wg.Done()
	}()

	hErr := make(chan error)
	go func() {
		hErr <- srv.ListenAndServe()
	}()

	srv.logger.Info().Str("addr", srv.Addr).Msg("server started")

	select {
	case err := <-hErr:
		if !errors.Is(err, http.ErrServerClosed) {
			errc <- errors.Join(ErrUnexpected, err)
		}
	case <-ctx.Done():
		shCtx, shCancel := context.WithTimeout(context.Background(), defaultShutdownDeadline)
		defer shCancel()
		if err := srv.Shutdown(shCtx); err != nil {
			srv.logger.Error().Err(err).Msg("server shutdown failed")
		}
	}
}
