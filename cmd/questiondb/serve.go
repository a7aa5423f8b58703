package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/maloquacious/questiondb/internal/logger"
	"github.com/maloquacious/questiondb/internal/question"
	"github.com/maloquacious/questiondb/internal/repository"
	"github.com/maloquacious/questiondb/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// server holds the routes for the public and admin listeners.
type server struct {
	st        store.Store
	questions *repository.Gateway[*question.Question]
	log       logger.Logger
	shutdown  context.CancelFunc
}

func newServer(st store.Store, log logger.Logger, shutdown context.CancelFunc) *server {
	return &server{
		st:        st,
		questions: question.NewGateway(st.Conn()),
		log:       log,
		shutdown:  shutdown,
	}
}

// runServe starts both the public and admin servers with graceful shutdown.
func runServe(cmd *cobra.Command, args []string) error {
	st, err := openExistingStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := newServer(st, logger.Default, cancel)

	publicSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: srv.publicRoutes(),
	}

	// Bind admin to 127.0.0.1 only (loopback enforcement)
	adminListener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", adminPort))
	if err != nil {
		return fmt.Errorf("admin listener bind failed (loopback only): %w", err)
	}
	adminSrv := &http.Server{
		Handler: srv.adminRoutes(),
	}

	if exitAfter > 0 {
		logger.Default.Info("exit-after timer set: %s", exitAfter)
		timer := time.AfterFunc(exitAfter, cancel)
		defer timer.Stop()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Default.Info("public server listening on :%d", port)
		if err := publicSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("public server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		logger.Default.Info("admin server listening on 127.0.0.1:%d (JSON-only)", adminPort)
		if err := adminSrv.Serve(adminListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("admin server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTO)
		defer cancel()

		_ = publicSrv.Shutdown(shutdownCtx)
		_ = adminSrv.Shutdown(shutdownCtx)
		return nil
	})

	err = eg.Wait()
	if err != nil {
		logger.Default.Error("server error: %v", err)
	}
	logger.Default.Info("shutdown complete")
	return err
}

func (s *server) publicRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// ready only once the schema is initialized at the expected version
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		state, err := s.st.CheckState(r.Context())
		if err != nil || state != store.StateReady {
			if err != nil {
				s.log.Warn("readiness check: %v", err)
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(strings.ToUpper(state.String())))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("READY"))
	})

	return mux
}

func (s *server) adminRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/admin/status", jsonOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, err := s.st.CheckState(r.Context())
		if err != nil {
			s.log.Warn("status check: %v", err)
		}
		resp := map[string]string{
			"version":       version.String(),
			"schemaVersion": schemaVersion,
			"buildDate":     buildDate,
			"time":          time.Now().UTC().Format(time.RFC3339),
			"state":         state.String(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})))

	mux.Handle("/admin/questions", jsonOnly(http.HandlerFunc(s.handleAddQuestion)))

	mux.Handle("/admin/shutdown", jsonOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "shutting down"})
		s.log.Info("shutdown requested via admin endpoint")
		s.shutdown()
	})))

	return mux
}

func (s *server) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var payload struct {
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Content == nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", `body must be {"content": "..."}`)
		return
	}

	q, err := s.questions.Insert(r.Context(), question.New(*payload.Content))
	if err != nil {
		s.log.Error("insert question: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(q)
}

// jsonOnly enforces JSON-only contract for admin routes.
func jsonOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Require Accept: application/json (at least for admin)
		accept := r.Header.Get("Accept")
		if !strings.Contains(accept, "application/json") && accept != "" {
			writeJSONError(w, http.StatusNotAcceptable, "not_acceptable", "Accept must include application/json")
			return
		}
		if r.Method != http.MethodGet && !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": msg,
	})
}
