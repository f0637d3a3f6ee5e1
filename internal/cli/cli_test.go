package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/cogscreen/internal/pipeline"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

const transcript = "I went to the store yesterday. I bought some milk and bread. Then I walked home slowly."

type harness struct {
	home    string
	dataDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return &harness{home: home, dataDir: filepath.Join(home, "data")}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--data-dir", h.dataDir}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (h *harness) analyzeAndSave(t *testing.T, text string) *pipeline.AnalyzeOutput {
	t.Helper()
	stdout, _, err := h.run(t, "", "analyze", "--save", "--json", text)
	require.NoError(t, err)

	var out pipeline.AnalyzeOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.True(t, out.Persisted)
	return &out
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	stdout, _, err := h.run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "cogscreen dev\n", stdout)
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		want    []string
		wantErr string
	}{
		{
			name: "arguments",
			args: []string{"analyze", transcript},
			want: []string{"Transcript:   arguments", "Risk score:", "Top contributing features:"},
		},
		{
			name:  "stdin",
			stdin: transcript,
			args:  []string{"analyze"},
			want:  []string{"Transcript:   stdin", "Model:        fallback"},
		},
		{
			name:    "empty text",
			stdin:   "   ",
			args:    []string{"analyze"},
			wantErr: "text",
		},
		{
			name:    "file and args",
			args:    []string{"analyze", "--file", "x.txt", "hello"},
			wantErr: "not both",
		},
		{
			name:    "timing without metadata",
			args:    []string{"analyze", "--timing", transcript},
			wantErr: "metadata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			stdout, _, err := h.run(t, tt.stdin, tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestAnalyzeFromFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.home, "session.txt")
	require.NoError(t, os.WriteFile(path, []byte(transcript), 0o644))

	stdout, _, err := h.run(t, "", "analyze", "--json", "--file", path)
	require.NoError(t, err)

	var out pipeline.AnalyzeOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.False(t, out.Persisted)
	assert.NotEmpty(t, out.Result.ScoringID)
	assert.GreaterOrEqual(t, out.Result.RiskScore, 0.0)
	assert.LessOrEqual(t, out.Result.RiskScore, 1.0)
}

func TestSaveCompareAndResults(t *testing.T) {
	h := newHarness(t)
	first := h.analyzeAndSave(t, transcript)
	second := h.analyzeAndSave(t, "The weather was nice. We talked about the garden and the new roses by the fence.")

	stdout, _, err := h.run(t, "", "compare", "--json", first.Result.ScoringID, second.Result.ScoringID)
	require.NoError(t, err)
	var report scoring.ComparisonReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Len(t, report.Scores, 2)

	stdout, _, err = h.run(t, "", "results", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, first.Result.ScoringID)
	assert.Contains(t, stdout, "2 result(s)")

	stdout, _, err = h.run(t, "", "results", "show", first.Result.ScoringID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Scoring ID:   "+first.Result.ScoringID)

	_, _, err = h.run(t, "", "results", "delete", first.Result.ScoringID)
	require.NoError(t, err)

	_, _, err = h.run(t, "", "results", "show", first.Result.ScoringID)
	require.Error(t, err)
}

func TestResultsPurge(t *testing.T) {
	h := newHarness(t)
	h.analyzeAndSave(t, transcript)

	_, _, err := h.run(t, "", "results", "purge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retention")

	stdout, _, err := h.run(t, "", "results", "purge", "--older-than", "1h")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted 0 result(s)")

	stdout, _, err = h.run(t, "", "results", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 result(s)")
}

func TestCompareArgs(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run(t, "", "compare", "only-one")
	require.Error(t, err)
}

func TestResultsListInvalidTime(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run(t, "", "results", "list", "--from", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from")
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.home, "cfg", "config.yaml")

	stdout, _, err := h.run(t, "", "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, path)

	_, _, err = h.run(t, "", "--config", path, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "# cogscreen configuration"))
	assert.NotContains(t, string(body), "api_key")

	stdout, stderr, err := h.run(t, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stderr, path)
	assert.Contains(t, stdout, "data_dir: "+h.dataDir)
}

func TestConfigShowWithoutFile(t *testing.T) {
	h := newHarness(t)
	_, stderr, err := h.run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stderr, "using defaults")
}

func TestCalibration(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run(t, "", "calibration", "init", "clinic-a")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"clinic-a"`)
	assert.FileExists(t, filepath.Join(h.dataDir, "calibration", "clinic-a.json"))

	_, _, err = h.run(t, "", "calibration", "init", "clinic-a")
	require.Error(t, err)

	stdout, _, err = h.run(t, "", "calibration", "show", "clinic-a")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Profile: clinic-a")
	assert.Contains(t, stdout, "lexicalDiversity")

	_, _, err = h.run(t, "", "calibration", "show", "missing")
	require.Error(t, err)
}
