package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/fetchkit/fetchkit/internal/utils"
)

func TestParseHeaderArgs(t *testing.T) {
	headers := utils.ParseHeaderArgs([]string{
		"Authorization: Basic dXNlcjpwYXNz",
		"X-Custom:value",
		"malformed-header",
	})
	gt.Number(t, len(headers)).Equal(2)
	gt.Value(t, headers["Authorization"]).Equal("Basic dXNlcjpwYXNz")
	gt.Value(t, headers["X-Custom"]).Equal("value")
}

func TestGetRandomUserAgent(t *testing.T) {
	gt.Value(t, utils.GetRandomUserAgent()).NotEqual("")
}

func TestCleanFunction(t *testing.T) {
	destDir := t.TempDir()
	tempDir := filepath.Join(destDir, utils.TempDirName)
	gt.NoError(t, os.MkdirAll(tempDir, 0755))
	gt.NoError(t, os.WriteFile(filepath.Join(tempDir, "a.txt.part"), []byte("partial"), 0644))

	gt.NoError(t, utils.CleanFunction(destDir))

	// empty temp dir is removed along with the partials
	_, err := os.Stat(tempDir)
	gt.True(t, os.IsNotExist(err))
}

func TestCleanFunctionNoTempDir(t *testing.T) {
	gt.NoError(t, utils.CleanFunction(t.TempDir()))
}
