package httpfetch_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/fetchkit/fetchkit/internal/fetch/httpfetch"
	"github.com/fetchkit/fetchkit/internal/utils"
)

func newJob(url, destDir string) *utils.FetchJob {
	return &utils.FetchJob{
		ID:         "test",
		SourceType: "http",
		URL:        url,
		DestDir:    destDir,
		Metadata:   make(map[string]any),
	}
}

func runPhases(t *testing.T, job *utils.FetchJob) error {
	t.Helper()
	d := &httpfetch.Downloader{}
	if err := d.ValidateJob(job); err != nil {
		return err
	}
	if err := d.BuildJob(job); err != nil {
		return err
	}
	return d.Download(job)
}

func TestDownloadNamesArtifactAfterPathSegment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/report.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("report body"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destDir := t.TempDir()
	job := newJob(server.URL+"/data/report.txt", destDir)
	gt.NoError(t, runPhases(t, job))

	gt.Value(t, job.OutputPath).Equal(filepath.Join(destDir, "report.txt"))
	content, err := os.ReadFile(job.OutputPath)
	gt.NoError(t, err)
	gt.String(t, string(content)).Contains("report body")
}

func TestDownloadFallsBackToContentDisposition(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="served.bin"`)
		w.Write([]byte("payload"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destDir := t.TempDir()
	job := newJob(server.URL+"/", destDir)
	gt.NoError(t, runPhases(t, job))
	gt.Value(t, filepath.Base(job.OutputPath)).Equal("served.bin")
}

func TestDownloadOverwritesExistingArtifact(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fresh content"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destDir := t.TempDir()
	existing := filepath.Join(destDir, "a.txt")
	gt.NoError(t, os.WriteFile(existing, []byte("stale content"), 0644))

	job := newJob(server.URL+"/a.txt", destDir)
	gt.NoError(t, runPhases(t, job))

	content, err := os.ReadFile(existing)
	gt.NoError(t, err)
	gt.String(t, string(content)).Contains("fresh content")
}

func TestDownloadRejectsNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	destDir := t.TempDir()
	job := newJob(server.URL+"/missing.txt", destDir)
	err := runPhases(t, job)
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("404")
}

func TestDownloadServerErrorLeavesNoArtifact(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/flaky.txt", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			return // probe succeeds, the GET is the failure
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destDir := t.TempDir()
	job := newJob(server.URL+"/flaky.txt", destDir)
	err := runPhases(t, job)
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("unexpected status code")

	_, err = os.Stat(filepath.Join(destDir, "flaky.txt"))
	gt.True(t, os.IsNotExist(err))
}

func TestDownloadRejectsUnsupportedScheme(t *testing.T) {
	job := newJob("ftp://example.test/a.txt", t.TempDir())
	d := &httpfetch.Downloader{}
	err := d.ValidateJob(job)
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("unsupported scheme")
}
