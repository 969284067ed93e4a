package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

type pingEndpoint struct {
	needsDoc bool
}

func (e *pingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pong"}`))
	}
}

func (e *pingEndpoint) RequiresDocument() bool { return e.needsDoc }

func (e *pingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{Use: "ping"}
}

type groupedEndpoint struct{ pingEndpoint }

func (e *groupedEndpoint) Group() (string, string) { return "tools", "Tool commands" }

func (e *groupedEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{Use: "list"}
}

func TestRegistry_BuildCommandsGroups(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&pingEndpoint{})
	reg.Register(&groupedEndpoint{})

	cmd := reg.BuildCommands(func() string { return "" })
	tools, _, err := cmd.Find([]string{"tools", "list"})
	if err != nil {
		t.Fatalf("Find(tools list) error = %v", err)
	}
	if tools.Name() != "list" || tools.Parent().Name() != "tools" {
		t.Errorf("grouped command placed at %q", tools.CommandPath())
	}
	if len(cmd.Commands()) != 2 {
		t.Errorf("api has %d subcommands, want 2", len(cmd.Commands()))
	}
}

func TestRegistry_RegisterRoutes(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&pingEndpoint{needsDoc: true})

	wrapped := 0
	mux := http.NewServeMux()
	reg.RegisterRoutes(mux, func(h http.HandlerFunc) http.HandlerFunc {
		wrapped++
		return h
	})
	if wrapped != 1 {
		t.Errorf("middleware applied %d times, want 1", wrapped)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	cmd := reg.BuildCommands(func() string { return "" })
	if len(cmd.Commands()) != 1 || cmd.Commands()[0].Name() != "ping" {
		t.Errorf("BuildCommands() subcommands = %v", cmd.Commands())
	}
}

func TestClient_Roundtrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/echo":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			json.NewEncoder(w).Encode(body)
		case r.URL.Path == "/missing":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "no such thing"})
		default:
			w.WriteHeader(http.StatusTeapot)
			w.Write([]byte("plain failure"))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	var got map[string]string
	if err := c.Put(ctx, "/echo", map[string]string{"id": "doc"}, &got); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if got["id"] != "doc" {
		t.Errorf("Put() echoed %v", got)
	}

	err := c.Get(ctx, "/missing", nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Get() error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusNotFound || se.Message != "no such thing" {
		t.Errorf("StatusError = %+v", se)
	}

	err = c.Post(ctx, "/other", nil, nil)
	if !errors.As(err, &se) || se.Message != "plain failure" {
		t.Errorf("Post() error = %v, want raw body message", err)
	}
}

func TestOutputFormats(t *testing.T) {
	defer SetOutputFormat("text")

	if err := SetOutputFormat("xml"); err == nil {
		t.Error("SetOutputFormat(xml) should fail")
	}
	if err := SetOutputFormat("json"); err != nil {
		t.Fatalf("SetOutputFormat(json) error = %v", err)
	}
	if GetOutputFormat() != OutputFormatJSON || IsText() {
		t.Errorf("format = %s after selecting json", GetOutputFormat())
	}

	data := map[string]int{"total_pages": 2}
	var buf bytes.Buffer
	if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"total_pages": 2`) {
		t.Errorf("json output = %q", buf.String())
	}

	buf.Reset()
	if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "total_pages: 2" {
		t.Errorf("yaml output = %q", buf.String())
	}
}
