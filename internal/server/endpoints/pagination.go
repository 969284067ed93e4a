package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagefit/internal/api"
	"github.com/jackzampolin/pagefit/internal/document"
	"github.com/jackzampolin/pagefit/internal/paginate"
	"github.com/jackzampolin/pagefit/internal/preview"
	"github.com/jackzampolin/pagefit/internal/svcctx"
	"github.com/jackzampolin/pagefit/internal/types"
)

// MeasurementsResponse is the last published measurement list.
type MeasurementsResponse struct {
	Measurements []types.Measurement `json:"measurements" yaml:"measurements"`
	TotalHeight  float64             `json:"total_height" yaml:"total_height"`
}

// MeasurementsEndpoint handles GET /api/measurements.
type MeasurementsEndpoint struct{}

func (e *MeasurementsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/measurements", e.handler
}

func (e *MeasurementsEndpoint) RequiresDocument() bool { return true }

// handler godoc
//
//	@Summary		Current measurements
//	@Description	The last published measurement list, in document order
//	@Tags			measurements
//	@Produce		json
//	@Success		200	{object}	MeasurementsResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/measurements [get]
func (e *MeasurementsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ms := svcctx.PreviewFrom(r.Context()).Measurements()
	if ms == nil {
		ms = []types.Measurement{}
	}
	writeJSON(w, http.StatusOK, MeasurementsResponse{Measurements: ms, TotalHeight: types.TotalHeight(ms)})
}

func (e *MeasurementsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "measurements",
		Short: "Print the current section heights",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp MeasurementsResponse
			if err := client.Get(cmd.Context(), "/api/measurements", &resp); err != nil {
				return err
			}
			if !api.IsText() {
				return api.Output(resp)
			}
			for _, m := range resp.Measurements {
				fmt.Printf("%-40s %-8s %8.1f\n", m.SectionID, m.Type, m.Height)
			}
			fmt.Printf("%-40s %-8s %8.1f\n", "total", "", resp.TotalHeight)
			return nil
		},
	}
}

// PaginationEndpoint handles GET /api/pagination.
type PaginationEndpoint struct{}

func (e *PaginationEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pagination", e.handler
}

func (e *PaginationEndpoint) RequiresDocument() bool { return true }

// handler godoc
//
//	@Summary		Current pagination
//	@Description	Paginate and audit the current measurements with the server options
//	@Tags			pagination
//	@Produce		json
//	@Param			optimize	query		bool	false	"Attach the first-fit-decreasing alternative"
//	@Param			advise		query		bool	false	"Ask the configured advisor for extra suggestions"
//	@Success		200			{object}	preview.Result
//	@Failure		400			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Router			/api/pagination [get]
func (e *PaginationEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc := svcctx.PreviewFrom(r.Context())
	opts := svc.Options()

	q := r.URL.Query()
	if v := q.Get("optimize"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid optimize value")
			return
		}
		opts.Optimize = b
	}

	result := svc.PaginationResult(svc.Measurements(), opts)
	if advise, _ := strconv.ParseBool(q.Get("advise")); advise {
		result = svc.Advise(r.Context(), result)
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *PaginationEndpoint) Command(getServerURL func() string) *cobra.Command {
	var optimize, advise bool
	cmd := &cobra.Command{
		Use:   "pagination",
		Short: "Paginate the current document",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if optimize {
				q.Set("optimize", "true")
			}
			if advise {
				q.Set("advise", "true")
			}
			path := "/api/pagination"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			client := api.NewClient(getServerURL())
			var resp preview.Result
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			if api.IsText() {
				return preview.WriteSummary(cmd.OutOrStdout(), resp)
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&optimize, "optimize", false, "Include the first-fit-decreasing alternative")
	cmd.Flags().BoolVar(&advise, "advise", false, "Include advisor suggestions")
	return cmd
}

// PaginateRequest is a one-shot pagination request. Document is measured
// synchronously; Measurements are used as given when no document is sent.
type PaginateRequest struct {
	Document     json.RawMessage     `json:"document,omitempty"`
	Measurements []types.Measurement `json:"measurements,omitempty"`
	Options      *paginate.Options   `json:"options,omitempty"`
}

// PaginateEndpoint handles POST /api/paginate.
type PaginateEndpoint struct{}

func (e *PaginateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/paginate", e.handler
}

func (e *PaginateEndpoint) RequiresDocument() bool { return false }

// handler godoc
//
//	@Summary		Paginate a document
//	@Description	Measure a document (or take caller-supplied measurements) and return the audited pagination
//	@Tags			pagination
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PaginateRequest	true	"Document or measurements, with optional options"
//	@Success		200		{object}	preview.Result
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/paginate [post]
func (e *PaginateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc := svcctx.PreviewFrom(r.Context())
	if svc == nil {
		writeError(w, http.StatusInternalServerError, "preview service not available")
		return
	}

	// Options decode over the server's own, so omitted fields keep the
	// configured page geometry.
	opts := svc.Options()
	req := PaginateRequest{Options: &opts}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Options != nil {
		opts = *req.Options
	}

	ms := req.Measurements
	if len(req.Document) > 0 {
		doc, err := document.ParseJSON(req.Document)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ms = svc.MeasureNow(r.Context(), doc.Sections)
	}

	writeJSON(w, http.StatusOK, svc.PaginationResult(ms, opts))
}

func (e *PaginateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var optimize bool
	cmd := &cobra.Command{
		Use:   "paginate <file>",
		Short: "Measure and paginate a document file without changing server state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.Load(args[0])
			if err != nil {
				return err
			}
			raw, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to encode document: %w", err)
			}
			// Only the override is sent; the server fills in its configured
			// page geometry.
			req := map[string]any{"document": raw}
			if optimize {
				req["options"] = map[string]bool{"optimize": true}
			}

			client := api.NewClient(getServerURL())
			var resp preview.Result
			if err := client.Post(cmd.Context(), "/api/paginate", req, &resp); err != nil {
				return err
			}
			if api.IsText() {
				return preview.WriteSummary(cmd.OutOrStdout(), resp)
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&optimize, "optimize", false, "Include the first-fit-decreasing alternative")
	return cmd
}

// RefreshEndpoint handles POST /api/refresh.
type RefreshEndpoint struct{}

func (e *RefreshEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/refresh", e.handler
}

func (e *RefreshEndpoint) RequiresDocument() bool { return true }

// handler godoc
//
//	@Summary		Re-measure
//	@Description	Purge cached heights and schedule a fresh measurement pass
//	@Tags			measurements
//	@Success		202
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/refresh [post]
func (e *RefreshEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svcctx.PreviewFrom(r.Context()).Refresh()
	w.WriteHeader(http.StatusAccepted)
}

func (e *RefreshEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Purge cached heights and re-measure",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Post(cmd.Context(), "/api/refresh", nil, nil); err != nil {
				return err
			}
			fmt.Println("Refresh scheduled")
			return nil
		},
	}
}
