package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, baseDir string) string {
	t.Helper()
	path := filepath.Join(baseDir, "config.toml")
	content := fmt.Sprintf(`[paths]
warehouse_dir = %q
report_dir = %q
log_dir = %q

[[sources]]
type = "web"
target = "demo"
max_records = 10

[[sources]]
type = "stream"
target = "demo"
max_records = 10
`,
		filepath.Join(baseDir, "warehouse"),
		filepath.Join(baseDir, "reports"),
		filepath.Join(baseDir, "logs"),
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	out, _, err := runCLI(t, []string{"config", "validate"}, configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "warehouse_dir")
	requireContains(t, out, "rejection_threshold")
}

func TestRunAndReportShow(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	copyPath := filepath.Join(base, "copy.json")
	out, _, err := runCLI(t, []string{"run", "--output", copyPath}, configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Records by source:")
	requireContains(t, out, "Report written to ")
	if _, err := os.Stat(copyPath); err != nil {
		t.Fatalf("expected report copy at %s: %v", copyPath, err)
	}

	out, _, err = runCLI(t, []string{"report", "show"}, configPath)
	if err != nil {
		t.Fatalf("report show: %v", err)
	}
	requireContains(t, out, "[DONE]")

	out, _, err = runCLI(t, []string{"report", "show", "--json"}, configPath)
	if err != nil {
		t.Fatalf("report show --json: %v", err)
	}
	requireContains(t, out, `"state": "done"`)
}

func TestWarehouseStats(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	if _, _, err := runCLI(t, []string{"run"}, configPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	out, _, err := runCLI(t, []string{"warehouse", "stats"}, configPath)
	if err != nil {
		t.Fatalf("warehouse stats: %v", err)
	}
	requireContains(t, out, "WEB")
	requireContains(t, out, "Total")

	out, _, err = runCLI(t, []string{"warehouse", "health"}, configPath)
	if err != nil {
		t.Fatalf("warehouse health: %v", err)
	}
	requireContains(t, out, `"integrity_check": true`)
}
