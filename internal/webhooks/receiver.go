// Package webhooks receives render provider callbacks over HTTP.
//
// Providers deliver completion callbacks long before the poll loop would
// notice, but callback payloads are not trusted as a source of job state.
// Every payload is persisted verbatim for later inspection and the job it
// references, when one can be identified, is logged. State changes still
// come only from polling the provider.
package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"shortforge/internal/config"
	"shortforge/internal/jobs"
	"shortforge/internal/logging"
	"shortforge/internal/services"
)

const maxPayloadBytes = 1 << 20

// Known providers that may deliver callbacks.
var providerPaths = map[string]string{
	"/webhooks/heygen": "heygen",
	"/webhooks/did":    "did",
}

// Payload fields checked, in order, for a render job identifier.
var jobIDFields = []string{"video_id", "id", "talk_id", "job_id"}

// Receiver is the webhook HTTP server. It persists raw callback payloads
// under <data>/webhooks and correlates them against the jobs store.
type Receiver struct {
	bind       string
	webhookDir string
	store      *jobs.Store
	logger     *slog.Logger
	now        func() time.Time

	listener net.Listener
	server   *http.Server
}

// NewReceiver builds a receiver bound to cfg.Paths.WebhookBind. A nil
// receiver is returned when no bind address is configured; its Start and
// Stop methods are no-ops.
func NewReceiver(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Receiver {
	if cfg == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.WebhookBind)
	if bind == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	r := &Receiver{
		bind:       bind,
		webhookDir: filepath.Join(cfg.Paths.DataDir, "webhooks"),
		store:      store,
		logger:     logger.With(logging.String(logging.FieldComponent, "webhooks")),
		now:        time.Now,
	}
	r.server = &http.Server{
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return r
}

// Handler returns the HTTP handler, exposed separately so tests can drive
// it without a listener.
func (r *Receiver) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhooks/", r.handleWebhook)
	return mux
}

// Start begins serving and returns once the listener is bound. The server
// shuts down when ctx is canceled.
func (r *Receiver) Start(ctx context.Context) error {
	if r == nil {
		return nil
	}
	listener, err := net.Listen("tcp", r.bind)
	if err != nil {
		return fmt.Errorf("webhook listen: %w", err)
	}
	r.listener = listener

	go func() {
		if err := r.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("webhook server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.server.Shutdown(shutdownCtx)
	}()

	r.logger.Info("webhook server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (r *Receiver) Stop() {
	if r == nil {
		return
	}
	if r.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.server.Shutdown(shutdownCtx)
	}
	if r.listener != nil {
		_ = r.listener.Close()
		r.listener = nil
	}
}

func (r *Receiver) handleWebhook(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.NotFound(w, req)
		return
	}
	provider, ok := providerPaths[req.URL.Path]
	if !ok {
		http.NotFound(w, req)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(req.Body, maxPayloadBytes))
	if err != nil {
		r.logger.Error("failed to read webhook body", logging.Error(err))
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}

	path, err := r.persist(provider, payload)
	if err != nil {
		r.logger.Error("failed to persist webhook payload", logging.Error(err))
		http.Error(w, "persist failed", http.StatusInternalServerError)
		return
	}

	log := r.logger.With(
		logging.String("provider", provider),
		logging.String("payload_path", path),
	)
	if jobID := extractJobID(payload); jobID != "" {
		r.observeJob(req.Context(), log, jobID)
	} else {
		log.Info("webhook received without job identifier")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}` + "\n"))
}

func (r *Receiver) persist(provider string, payload []byte) (string, error) {
	if err := os.MkdirAll(r.webhookDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%d.json", provider, r.now().UnixMilli())
	path := filepath.Join(r.webhookDir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// observeJob correlates a callback with the jobs store for logging only.
// The poll loop remains the sole writer of job state.
func (r *Receiver) observeJob(ctx context.Context, log *slog.Logger, jobID string) {
	log = log.With(logging.String(logging.FieldJobID, jobID))
	if r.store == nil {
		log.Info("webhook referenced a job")
		return
	}
	job, err := r.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			log.Warn("webhook referenced an unknown job")
		} else {
			log.Error("failed to look up webhook job", logging.Error(err))
		}
		return
	}
	log.Info("webhook matched a known job",
		logging.String(logging.FieldClientID, job.ClientID),
		logging.String("status", string(job.Status)))
}

func extractJobID(payload []byte) string {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	// HeyGen nests callback details under "event_data".
	if nested, ok := body["event_data"].(map[string]any); ok {
		if id := firstStringField(nested); id != "" {
			return id
		}
	}
	return firstStringField(body)
}

func firstStringField(body map[string]any) string {
	for _, field := range jobIDFields {
		if value, ok := body[field].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
