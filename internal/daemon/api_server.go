package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"litany/internal/config"
	"litany/internal/logging"
	"litany/internal/process"
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.requireAuth(srv.handleStatus))
	mux.HandleFunc("/api/processes", srv.requireAuth(srv.handleProcesses))
	mux.HandleFunc("/api/processes/", srv.requireAuth(srv.handleProcessSubtree))
	mux.HandleFunc("/api/test-notification", srv.requireAuth(srv.handleTestNotification))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, StatusView{
		Running:      status.Running,
		PID:          status.PID,
		StorePath:    status.StorePath,
		LockFilePath: status.LockFilePath,
		Total:        status.Processes.Total,
		Active:       status.Processes.Active,
		Completed:    status.Processes.Completed,
		Failed:       status.Processes.Failed,
	})
}

func (s *apiServer) handleProcesses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listProcesses(w, r)
	case http.MethodPost:
		s.startProcess(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listProcesses(w http.ResponseWriter, r *http.Request) {
	var stageFilter []process.Stage
	for _, value := range r.URL.Query()["stage"] {
		stage, ok := process.ParseStage(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown stage %q", value))
			return
		}
		stageFilter = append(stageFilter, stage)
	}
	procs, err := s.daemon.Orchestrator().List(r.Context(), stageFilter...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]ProcessView, 0, len(procs))
	for _, proc := range procs {
		views = append(views, viewOf(proc))
	}
	s.writeJSON(w, http.StatusOK, map[string][]ProcessView{"processes": views})
}

func (s *apiServer) startProcess(w http.ResponseWriter, r *http.Request) {
	var req StartProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	proc, err := s.daemon.Orchestrator().StartProcess(r.Context(), req.ProcessID, req.Payload())
	if err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, viewOf(proc))
}

// handleProcessSubtree routes /api/processes/{id} and its sub-resources.
func (s *apiServer) handleProcessSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/processes/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" || strings.Contains(sub, "/") {
		s.writeError(w, http.StatusNotFound, "process not found")
		return
	}

	switch sub {
	case "":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.processStatus(w, r, id)
	case "titles":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.processTitles(w, r, id)
	case "title":
		if r.Method != http.MethodPost {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.selectTitle(w, r, id)
	case "result":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.processResult(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, "process not found")
	}
}

func (s *apiServer) processStatus(w http.ResponseWriter, r *http.Request, id string) {
	proc, err := s.daemon.Orchestrator().Status(r.Context(), id)
	if err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(proc))
}

func (s *apiServer) processTitles(w http.ResponseWriter, r *http.Request, id string) {
	titles, err := s.daemon.Orchestrator().Titles(r.Context(), id)
	if err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, TitlesView{ProcessID: id, Titles: titles})
}

func (s *apiServer) selectTitle(w http.ResponseWriter, r *http.Request, id string) {
	var req SelectTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.daemon.Orchestrator().SelectTitle(r.Context(), id, req.Title); err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"process_id": id, "title": strings.TrimSpace(req.Title)})
}

func (s *apiServer) processResult(w http.ResponseWriter, r *http.Request, id string) {
	ref, err := s.daemon.Orchestrator().Result(r.Context(), id)
	if err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ResultView{ProcessID: id, ResultRef: ref})
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, message+": "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sent": sent, "message": message})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
