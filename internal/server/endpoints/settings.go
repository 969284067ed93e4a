package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagefit/internal/api"
	"github.com/jackzampolin/pagefit/internal/config"
	"github.com/jackzampolin/pagefit/internal/paper"
	"github.com/jackzampolin/pagefit/internal/svcctx"
)

func settingsGroup() (string, string) {
	return "settings", "Configuration settings commands"
}

// SettingsResponse lists effective configuration values.
type SettingsResponse struct {
	Settings []config.Setting `json:"settings" yaml:"settings"`
}

// ListSettingsEndpoint handles GET /api/settings.
type ListSettingsEndpoint struct{}

func (e *ListSettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

func (e *ListSettingsEndpoint) RequiresDocument() bool { return false }

func (e *ListSettingsEndpoint) Group() (string, string) { return settingsGroup() }

// handler godoc
//
//	@Summary		List all settings
//	@Description	Effective configuration values with their defaults
//	@Tags			settings
//	@Produce		json
//	@Param			prefix	query		string	false	"Only keys with this prefix"
//	@Success		200		{object}	SettingsResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/settings [get]
func (e *ListSettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cm := svcctx.ConfigFrom(r.Context())
	if cm == nil {
		writeError(w, http.StatusInternalServerError, "config manager not available")
		return
	}

	prefix := r.URL.Query().Get("prefix")
	settings := []config.Setting{}
	for _, s := range cm.Settings() {
		if strings.HasPrefix(s.Key, prefix) {
			settings = append(settings, s)
		}
	}

	writeJSON(w, http.StatusOK, SettingsResponse{Settings: settings})
}

func (e *ListSettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/settings"
			if prefix != "" {
				path += "?prefix=" + url.QueryEscape(prefix)
			}
			client := api.NewClient(getServerURL())
			var resp SettingsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			if !api.IsText() {
				return api.Output(resp)
			}
			for _, s := range resp.Settings {
				fmt.Printf("%-34s %v\n", s.Key, s.Value)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Filter by key prefix (e.g., 'pagination.')")
	return cmd
}

// GetSettingEndpoint handles GET /api/settings/{key}.
type GetSettingEndpoint struct{}

func (e *GetSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings/{key}", e.handler
}

func (e *GetSettingEndpoint) RequiresDocument() bool { return false }

func (e *GetSettingEndpoint) Group() (string, string) { return settingsGroup() }

// handler godoc
//
//	@Summary		Get a setting
//	@Description	Get a single configuration setting by key
//	@Tags			settings
//	@Produce		json
//	@Param			key	path		string	true	"Setting key"
//	@Success		200	{object}	config.Setting
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/settings/{key} [get]
func (e *GetSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cm := svcctx.ConfigFrom(r.Context())
	if cm == nil {
		writeError(w, http.StatusInternalServerError, "config manager not available")
		return
	}

	s, err := cm.Setting(r.PathValue("key"))
	if errors.Is(err, config.ErrNoDefault) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s)
}

func (e *GetSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp config.Setting
			if err := client.Get(cmd.Context(), "/api/settings/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// PapersResponse lists the paper sizes a config may name.
type PapersResponse struct {
	Papers []paper.Size `json:"papers" yaml:"papers"`
}

// ListPapersEndpoint handles GET /api/papers.
type ListPapersEndpoint struct{}

func (e *ListPapersEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/papers", e.handler
}

func (e *ListPapersEndpoint) RequiresDocument() bool { return false }

// handler godoc
//
//	@Summary		List paper sizes
//	@Description	Named paper sizes in layout units
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	PapersResponse
//	@Router			/api/papers [get]
func (e *ListPapersEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	names := paper.Names()
	resp := PapersResponse{Papers: make([]paper.Size, 0, len(names))}
	for _, n := range names {
		if s, err := paper.Lookup(n); err == nil {
			resp.Papers = append(resp.Papers, s)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListPapersEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "papers",
		Short: "List named paper sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp PapersResponse
			if err := client.Get(cmd.Context(), "/api/papers", &resp); err != nil {
				return err
			}
			if !api.IsText() {
				return api.Output(resp)
			}
			for _, p := range resp.Papers {
				fmt.Printf("%-12s %6.0f x %-6.0f\n", p.Name, p.Width, p.Height)
			}
			return nil
		},
	}
}
