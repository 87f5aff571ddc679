package main_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLIBinaryIntegration(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	// 1. Build the CLI binary.
	binPath := filepath.Join(t.TempDir(), "nextversion")
	buildCmd := exec.Command("go", "build", "-o", binPath, "./")
	if buildOutput, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build CLI binary: %v; build output: %s", err, string(buildOutput))
	}

	// 2. Set up a repository with a release tag and a fix on top of it.
	tmpRepo := t.TempDir()
	runGit := func(args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = tmpRepo
		output, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("git %v failed: %v; output: %s", args, err, string(output))
		}
		return strings.TrimSpace(string(output))
	}
	runGit("init")
	runGit("symbolic-ref", "HEAD", "refs/heads/main")
	runGit("config", "user.email", "test@example.com")
	runGit("config", "user.name", "Test User")
	runGit("config", "commit.gpgsign", "false")

	versionFilePath := filepath.Join(tmpRepo, "pkg", "version.go")
	if err := os.MkdirAll(filepath.Dir(versionFilePath), 0755); err != nil {
		t.Fatalf("failed to create pkg directory: %v", err)
	}
	initialVersionContent := `package version

var (
	Version = "1.2.3"
)
`
	if err := os.WriteFile(versionFilePath, []byte(initialVersionContent), 0644); err != nil {
		t.Fatalf("failed to write version file: %v", err)
	}
	runGit("add", ".")
	runGit("commit", "-m", "chore: initial commit")
	runGit("tag", "v1.2.3")

	if err := os.WriteFile(filepath.Join(tmpRepo, "fix.txt"), []byte("fixed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	runGit("add", ".")
	runGit("commit", "-m", "fix: correct the widget count\n\nRefs: #12")

	// 3. Run the CLI binary.
	cliCmd := exec.Command(binPath, "version", "--tag", "--stamp-file", filepath.Join("pkg", "version.go"), "--log-level", "debug")
	cliCmd.Dir = tmpRepo
	var cliStdout, cliStderr bytes.Buffer
	cliCmd.Stdout = &cliStdout
	cliCmd.Stderr = &cliStderr
	if err := cliCmd.Run(); err != nil {
		t.Fatalf("CLI command failed: %v; stdout: %s; stderr: %s", err, cliStdout.String(), cliStderr.String())
	}

	// 4. Only the version goes to stdout; logs go to stderr.
	if got := strings.TrimSpace(cliStdout.String()); got != "1.2.4" {
		t.Errorf("expected stdout 1.2.4, got %q", got)
	}
	if !strings.Contains(cliStderr.String(), "nextversion") {
		t.Errorf("expected prefixed log lines on stderr, got:\n%s", cliStderr.String())
	}

	// 5. The version file was stamped and HEAD tagged.
	updatedContent, err := os.ReadFile(versionFilePath)
	if err != nil {
		t.Fatalf("failed to read version file: %v", err)
	}
	if !strings.Contains(string(updatedContent), `Version = "1.2.4"`) {
		t.Errorf("version file not updated; expected 'Version = \"1.2.4\"' in content, got:\n%s", string(updatedContent))
	}
	if tags := runGit("tag", "--points-at", "HEAD"); tags != "v1.2.4" {
		t.Errorf("expected git tag v1.2.4 at HEAD, got %q", tags)
	}
}
