package main

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"intake/internal/api"
	"intake/internal/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = "http://127.0.0.1:0"
	cfg.PublicURL = "https://intake.example"
	cfg.Table.Driver = "memory"
	cfg.Blobs.Driver = "memory"
	return &cfg
}

func TestBuildServerEndToEnd(t *testing.T) {
	cfg := memoryConfig(t)
	srv, cleanup, err := buildServer(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("build server: %v", err)
	}
	defer cleanup()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	cfg.APIURL = ts.URL

	photo := writeTempFile(t, t.TempDir(), "p.jpg", "jpeg")
	var token string
	err = withClient(cfg, func(client *api.Client) error {
		created, err := client.Create(context.Background(), api.CreateRequest{
			Name:    "Asha",
			Uploads: []api.Upload{{Field: "photos", Path: photo}},
		})
		if err != nil {
			return err
		}
		token = created.Token
		if created.EditURL == nil || !strings.HasPrefix(*created.EditURL, "https://intake.example?token=") {
			t.Fatalf("unexpected edit url %v", created.EditURL)
		}

		got, err := client.Get(context.Background(), token)
		if err != nil {
			return err
		}
		if got.Data == nil || got.Data.Name != "Asha" || len(got.Data.Photos) != 1 {
			t.Fatalf("unexpected record %#v", got.Data)
		}
		if !strings.HasPrefix(got.Data.Photos[0], "https://intake.example/files/photos/") {
			t.Fatalf("unexpected photo link %q", got.Data.Photos[0])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("client round trip: %v", err)
	}
	if token == "" {
		t.Fatal("expected token")
	}
}

func TestBuildServerRejectsUnknownDrivers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := memoryConfig(t)
	cfg.Table.Driver = "excel"
	if _, _, err := buildServer(context.Background(), cfg, logger); err == nil {
		t.Fatal("expected error for unknown table driver")
	}

	cfg = memoryConfig(t)
	cfg.Blobs.Driver = "ftp"
	if _, _, err := buildServer(context.Background(), cfg, logger); err == nil {
		t.Fatal("expected error for unknown blob driver")
	}
}

func TestBuildServerRejectsRemoteListen(t *testing.T) {
	t.Setenv("INTAKE_ALLOW_REMOTE", "")
	cfg := memoryConfig(t)
	cfg.APIURL = "http://0.0.0.0:7420"
	if _, _, err := buildServer(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected remote listen guard")
	}
}

func TestServerEnvPinsStorage(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.DBPath = "/tmp/x.db"
	env := serverEnv(cfg)
	for _, want := range []string{
		"INTAKE_DB=/tmp/x.db",
		"INTAKE_TABLE_DRIVER=memory",
		"INTAKE_PUBLIC_URL=https://intake.example",
	} {
		if !containsLine(env, want) {
			t.Fatalf("server env missing %q: %v", want, env)
		}
	}
}
