package endpoints

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagefit/internal/api"
	"github.com/jackzampolin/pagefit/internal/document"
	"github.com/jackzampolin/pagefit/internal/measure"
	"github.com/jackzampolin/pagefit/internal/svcctx"
)

// maxDocumentBytes bounds request bodies for document submission.
const maxDocumentBytes = 1 << 20

// SubmitDocumentResponse acknowledges a submitted document. Measurement
// happens asynchronously.
type SubmitDocumentResponse struct {
	ID          string `json:"id" yaml:"id"`
	Sections    int    `json:"sections" yaml:"sections"`
	Revision    int64  `json:"revision" yaml:"revision"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

// SubmitDocumentEndpoint handles PUT /api/document.
type SubmitDocumentEndpoint struct{}

func (e *SubmitDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/document", e.handler
}

func (e *SubmitDocumentEndpoint) RequiresDocument() bool { return false }

// handler godoc
//
//	@Summary		Submit a document
//	@Description	Replace the document being edited and schedule a measurement pass
//	@Tags			document
//	@Accept			json
//	@Produce		json
//	@Param			body	body		document.Document	true	"Document"
//	@Success		202		{object}	SubmitDocumentResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/document [put]
func (e *SubmitDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc := svcctx.PreviewFrom(r.Context())
	store := svcctx.DocumentsFrom(r.Context())
	if svc == nil || store == nil {
		writeError(w, http.StatusInternalServerError, "preview service not available")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "document too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}

	doc, err := document.ParseJSON(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rev := store.Set(doc)
	svc.OnDocumentChanged(doc.Sections, doc)
	svcctx.LoggerFrom(r.Context()).Info("document submitted", "document_id", doc.ID, "sections", len(doc.Sections), "revision", rev)

	writeJSON(w, http.StatusAccepted, SubmitDocumentResponse{
		ID:          doc.ID,
		Sections:    len(doc.Sections),
		Revision:    rev,
		Fingerprint: measure.DocumentFingerprint(doc.Sections).String(),
	})
}

func (e *SubmitDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <file>",
		Short: "Send a document file to the server for measurement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.Load(args[0])
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp SubmitDocumentResponse
			if err := client.Put(cmd.Context(), "/api/document", doc, &resp); err != nil {
				return err
			}
			if api.IsText() {
				fmt.Printf("Submitted %s (%d sections, revision %d)\n", resp.ID, resp.Sections, resp.Revision)
				return nil
			}
			return api.Output(resp)
		},
	}
}

// GetDocumentEndpoint handles GET /api/document.
type GetDocumentEndpoint struct{}

func (e *GetDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/document", e.handler
}

func (e *GetDocumentEndpoint) RequiresDocument() bool { return true }

// handler godoc
//
//	@Summary		Get the current document
//	@Tags			document
//	@Produce		json
//	@Success		200	{object}	document.Document
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/document [get]
func (e *GetDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, svcctx.DocumentsFrom(r.Context()).Get())
}

func (e *GetDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "document",
		Short: "Print the document the server is measuring",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var doc document.Document
			if err := client.Get(cmd.Context(), "/api/document", &doc); err != nil {
				return err
			}
			return api.Output(doc)
		},
	}
}
