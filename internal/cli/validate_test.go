package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rdflift/internal/rules"
)

var warningsDir = filepath.Join("..", "..", "testdata", "warnings")

func executeValidate(t *testing.T, rootOpts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidSpecs(t *testing.T) {
	output, err := executeValidate(t, &RootOptions{Format: "text"}, specsDir)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ All 2 mapping(s) valid")
}

func TestValidateValidSpecsJSON(t *testing.T) {
	output, err := executeValidate(t, &RootOptions{Format: "json"}, specsDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Mappings)
	assert.Empty(t, resp.Data.Issues)
}

func TestValidateWarnings(t *testing.T) {
	output, err := executeValidate(t, &RootOptions{Format: "text"}, warningsDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, "graphless")
	assert.Contains(t, output, "W001: target graph <http://example.org/graph/ignored> is ignored by CONSTRUCT")
}

func TestValidateWarningsJSON(t *testing.T) {
	output, err := executeValidate(t, &RootOptions{Format: "json"}, warningsDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Issues, 1)
	assert.Equal(t, "graphless", resp.Data.Issues[0].Mapping)
	assert.Equal(t, WarnCodeQuery, resp.Error.Code)
}

func TestValidateSpecErrors(t *testing.T) {
	output, err := executeValidate(t, &RootOptions{Format: "text"}, invalidDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err), "spec errors are validation failures")
	assert.Contains(t, output, "E101")
	assert.Contains(t, output, "E102")
}

func TestValidateNonExistentDir(t *testing.T) {
	output, err := executeValidate(t, &RootOptions{Format: "text"}, "/nonexistent/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "Error [E005]")
}

func TestValidateSpecsDir(t *testing.T) {
	result, err := ValidateSpecsDir(specsDir, rules.Options{}, nil)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 2, result.Mappings)

	_, err = ValidateSpecsDir("/nonexistent/path", rules.Options{}, nil)
	var loadErr *rules.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, rules.ErrCodeNotFound, loadErr.Code)
}

func TestValidateVerboseGoesToStderr(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json", Verbose: true})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{specsDir})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, errOut.String(), "Compiling mapping: books")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), "stdout stays valid JSON")
}
