package deps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/magcho/vtrpon/internal/config"
	"github.com/magcho/vtrpon/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	notExec := filepath.Join(binDir, "plain")
	if err := os.WriteFile(notExec, script, 0o644); err != nil {
		t.Fatalf("write plain: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Plain", Command: notExec},
		{Name: "Empty", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available {
		t.Fatalf("non-executable file reported available")
	}
	if results[3].Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %q", results[3].Detail)
	}

	missing := Missing(results)
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing required deps, got %#v", missing)
	}
}

func TestResolveUsesPath(t *testing.T) {
	binDir := t.TempDir()
	testsupport.InstallScripts(t, binDir, map[string]string{"fakeffmpeg": "#!/bin/sh\nexit 0\n"})

	got, err := Resolve("fakeffmpeg")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != filepath.Join(binDir, "fakeffmpeg") {
		t.Fatalf("resolved %q", got)
	}
}

func TestRequirementsFollowBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Converter.Backend = config.BackendLibreOffice
	names := map[string]bool{}
	for _, req := range Requirements(cfg) {
		names[req.Name] = true
	}
	for _, want := range []string{"FFmpeg", "FFprobe", "LibreOffice", "pdftoppm", "pdfinfo"} {
		if !names[want] {
			t.Fatalf("libreoffice backend missing requirement %s", want)
		}
	}

	cfg.Converter.Backend = config.BackendPowerPoint
	for _, req := range Requirements(cfg) {
		if req.Name == "LibreOffice" {
			t.Fatal("powerpoint backend should not require LibreOffice")
		}
	}
}
