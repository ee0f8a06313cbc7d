package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shortforge/internal/clients"
	"shortforge/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckTimezone(t *testing.T) {
	if result := CheckTimezone("tz", "Europe/London"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckTimezone("tz", "Mars/Olympus"); result.Passed {
		t.Fatal("expected failure for unknown timezone")
	}
	if result := CheckTimezone("tz", ""); result.Passed {
		t.Fatal("expected failure for empty timezone")
	}
}

func TestCheckBindAddress(t *testing.T) {
	if result := CheckBindAddress("bind", "127.0.0.1:8787"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckBindAddress("bind", "no-port"); result.Passed {
		t.Fatal("expected failure without a port")
	}
}

func TestCheckClientsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	if err := clients.Save(path, []clients.Profile{testsupport.Client("client_a")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	result, profiles := CheckClientsFile(path)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if len(profiles) != 1 || profiles[0].ID != "client_a" {
		t.Fatalf("unexpected profiles: %+v", profiles)
	}
}

func TestCheckClientsFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, profiles := CheckClientsFile(path)
	if result.Passed {
		t.Fatal("expected failure for malformed file")
	}
	if profiles != nil {
		t.Fatal("expected nil profiles on failure")
	}
}

func TestCheckStores(t *testing.T) {
	dir := t.TempDir()
	if result := CheckJobsStore(context.Background(), filepath.Join(dir, "jobs.db")); !result.Passed {
		t.Fatalf("jobs store: %s", result.Detail)
	}
	if result := CheckQuotaStore(context.Background(), filepath.Join(dir, "quota.db")); !result.Passed {
		t.Fatalf("quota store: %s", result.Detail)
	}
}

func TestRunAllStubModeSkipsCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := clients.Save(cfg.Paths.ClientsFile, []clients.Profile{testsupport.Client("client_a")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if Failed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
	for _, result := range results {
		if result.Name == "OPENAI_API_KEY" {
			t.Fatal("credential checks must be skipped in stub mode")
		}
	}
}

func TestRunAllLiveModeChecksCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Stub.Enabled = false
	cfg.Providers.OpenAIAPIKey = ""

	client := testsupport.Client("client_a")
	client.Voice.Provider = "elevenlabs"
	client.Avatar.Provider = "heygen"
	client.Upload.Provider = "youtube"
	if err := clients.Save(cfg.Paths.ClientsFile, []clients.Profile{client}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	if !Failed(results) {
		t.Fatal("expected failures for missing credentials")
	}

	seen := map[string]bool{}
	for _, result := range results {
		seen[result.Name] = result.Passed
	}
	for _, name := range []string{"OPENAI_API_KEY", "ELEVENLABS_API_KEY", "HEYGEN_API_KEY", "YOUTUBE_REFRESH_TOKEN"} {
		passed, ok := seen[name]
		if !ok {
			t.Fatalf("missing credential check %s: %+v", name, results)
		}
		if passed {
			t.Fatalf("credential %s should be reported missing", name)
		}
	}
}
