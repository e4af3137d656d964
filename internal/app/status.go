package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) componentsHandler(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"enabled":    a.framework.Enabled(),
		"phase":      a.framework.Phase().String(),
		"components": a.framework.Describe(),
	})
}

func (a *App) globalsHandler(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"enabled":     a.watcher.Enabled(),
		"outstanding": a.watcher.Outstanding(),
		"defined":     a.namespace.Snapshot(),
	})
}

func (a *App) gatesHandler(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, a.Gates())
}

func (a *App) gateActionHandler(action func(string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		err := action(name)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, ErrUnknownGate):
			a.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error(), "gate": name})
		case errors.Is(err, ErrGateSettled):
			a.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error(), "gate": name})
		default:
			a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("Failed to write status response.", "error", err)
	}
}

// statusHandler routes the status endpoints.
func (a *App) statusHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("GET /components", a.componentsHandler)
	mux.HandleFunc("GET /globals", a.globalsHandler)
	mux.HandleFunc("GET /gates", a.gatesHandler)
	mux.HandleFunc("POST /gates/{name}", a.gateActionHandler(a.OpenGate))
	mux.HandleFunc("DELETE /gates/{name}", a.gateActionHandler(a.CancelGate))
	return mux
}

// startStatusServer binds the status port and serves until ctx is done.
func (a *App) startStatusServer(ctx context.Context, g *errgroup.Group) error {
	addr := fmt.Sprintf(":%d", a.config.StatusPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("status server: %w", err)
	}
	srv := &http.Server{
		Handler:           a.statusHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		a.logger.Info("🩺 Shutting down status server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Status server shutdown failed", "error", err)
			return err
		}
		a.logger.Debug("Status server shut down gracefully.")
		return nil
	})
	return nil
}
