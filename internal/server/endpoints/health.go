package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagefit/internal/api"
	"github.com/jackzampolin/pagefit/internal/preview"
	"github.com/jackzampolin/pagefit/internal/svcctx"
)

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresDocument() bool { return false }

func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server     string          `json:"server" yaml:"server"`
	ConfigFile string          `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	Document   *DocumentStatus `json:"document,omitempty" yaml:"document,omitempty"`
	Preview    preview.Status  `json:"preview" yaml:"preview"`
}

// DocumentStatus identifies the document being measured.
type DocumentStatus struct {
	ID        string    `json:"id" yaml:"id"`
	Sections  int       `json:"sections" yaml:"sections"`
	Revision  int64     `json:"revision" yaml:"revision"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// StatusEndpoint handles GET /api/status.
type StatusEndpoint struct{}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/status", e.handler
}

func (e *StatusEndpoint) RequiresDocument() bool { return false }

// handler godoc
//
//	@Summary		Server status
//	@Description	Measurement pipeline counters, cache statistics and the current document
//	@Tags			status
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc := svcctx.PreviewFrom(r.Context())
	if svc == nil {
		writeError(w, http.StatusInternalServerError, "preview service not available")
		return
	}

	resp := StatusResponse{Server: "running", Preview: svc.Status()}
	if cm := svcctx.ConfigFrom(r.Context()); cm != nil {
		resp.ConfigFile = cm.ConfigFile()
	}
	if store := svcctx.DocumentsFrom(r.Context()); store != nil {
		if doc := store.Get(); doc != nil {
			rev, at := store.Revision()
			resp.Document = &DocumentStatus{ID: doc.ID, Sections: len(doc.Sections), Revision: rev, UpdatedAt: at}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/api/status", &resp); err != nil {
				return err
			}
			if !api.IsText() {
				return api.Output(resp)
			}
			orch := resp.Preview.Orchestrator
			fmt.Printf("Server:   %s\n", resp.Server)
			if resp.Document != nil {
				fmt.Printf("Document: %s (%d sections, revision %d)\n", resp.Document.ID, resp.Document.Sections, resp.Document.Revision)
			} else {
				fmt.Printf("Document: none\n")
			}
			fmt.Printf("Pipeline: %s\n", orch.State)
			fmt.Printf("  Passes:    %d started, %d published, %d discarded\n", orch.PassesStarted, orch.PassesPublished, orch.PassesDiscarded)
			fmt.Printf("  Partial:   %d\n", orch.PartialUpdates)
			fmt.Printf("Cache:    %d entries, %d hits, %d misses\n", resp.Preview.Cache.Entries, resp.Preview.Cache.Hits, resp.Preview.Cache.Misses)
			return nil
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse = api.ErrorResponse

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
