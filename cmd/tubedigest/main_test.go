package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[youtube]
api_key = "test"

[transcript]
api_token = "test"

[anthropic]
api_key = "test"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output %q does not contain %q", output, want)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, err = runCLI(t, "", "config", "init", "--path", target)
	if err == nil {
		t.Fatalf("second init must refuse to overwrite, output %q", out)
	}
}

func TestChannelAddAndList(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "channel", "add", "TechTalks", "https://www.youtube.com/@techtalks")
	if err != nil {
		t.Fatalf("channel add: %v", err)
	}
	requireContains(t, out, "Added channel")

	out, err = runCLI(t, configPath, "channel", "list")
	if err != nil {
		t.Fatalf("channel list: %v", err)
	}
	requireContains(t, out, "TechTalks")
	requireContains(t, out, "pending")
}

func TestChannelListEmpty(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "channel", "list")
	if err != nil {
		t.Fatalf("channel list: %v", err)
	}
	requireContains(t, out, "No channels tracked yet")
}

func TestPromptsLoadAndShow(t *testing.T) {
	configPath := writeTestConfig(t)

	promptPath := filepath.Join(t.TempDir(), "prompts.toml")
	promptContent := `video_prompt = "Summarize %VIDEO_TITLE:"
channel_prompt = "Weekly recap for %CHANNEL_NAME:"
master_prompt = "Combine the digests:"
`
	if err := os.WriteFile(promptPath, []byte(promptContent), 0o644); err != nil {
		t.Fatalf("write prompt file: %v", err)
	}

	out, err := runCLI(t, configPath, "prompts", "load", promptPath)
	if err != nil {
		t.Fatalf("prompts load: %v", err)
	}
	requireContains(t, out, "Stored prompt set")

	out, err = runCLI(t, configPath, "prompts", "show")
	if err != nil {
		t.Fatalf("prompts show: %v", err)
	}
	requireContains(t, out, "Summarize %VIDEO_TITLE:")
	requireContains(t, out, "Weekly recap for %CHANNEL_NAME:")
}

func TestPromptsLoadRejectsIncompleteFile(t *testing.T) {
	configPath := writeTestConfig(t)

	promptPath := filepath.Join(t.TempDir(), "prompts.toml")
	if err := os.WriteFile(promptPath, []byte(`video_prompt = "only one"`), 0o644); err != nil {
		t.Fatalf("write prompt file: %v", err)
	}

	if _, err := runCLI(t, configPath, "prompts", "load", promptPath); err == nil {
		t.Fatal("expected error for incomplete prompt file")
	}
}

func TestSummarizeUnknownVideoFails(t *testing.T) {
	configPath := writeTestConfig(t)

	_, err := runCLI(t, configPath, "summarize", "missing-video")
	if err == nil {
		t.Fatal("expected error for unknown video")
	}
	if !strings.Contains(err.Error(), "not stored") {
		t.Fatalf("err = %v", err)
	}
}
