package runner_test

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/fetchkit/fetchkit/internal/errdef"
	"github.com/fetchkit/fetchkit/internal/manifest"
	"github.com/fetchkit/fetchkit/internal/runner"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := writer.Create(name)
		gt.NoError(t, err)
		_, err = entry.Write([]byte(content))
		gt.NoError(t, err)
	}
	gt.NoError(t, writer.Close())
	return buf.Bytes()
}

func textEntries(urls ...string) []manifest.Entry {
	var entries []manifest.Entry
	for _, url := range urls {
		entries = append(entries, manifest.Entry{URL: url, SourceType: manifest.SourceTypeFor(url)})
	}
	return entries
}

func TestRunDownloadsAndExtracts(t *testing.T) {
	archive := zipBytes(t, map[string]string{
		"b1.txt": "zip entry one",
		"b2.txt": "zip entry two",
	})
	mux := http.NewServeMux()
	mux.HandleFunc("/a.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain artifact"))
	})
	mux.HandleFunc("/b.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destDir := t.TempDir()
	res, err := runner.Run(textEntries(server.URL+"/a.txt", server.URL+"/b.zip"), runner.Options{
		DestDir: destDir,
		Extract: true,
	})
	gt.NoError(t, err)
	gt.Number(t, res.Processed).Equal(2)
	gt.Number(t, res.Succeeded).Equal(2)
	gt.Number(t, len(res.Failures)).Equal(0)

	for _, name := range []string{"a.txt", "b1.txt", "b2.txt"} {
		_, err := os.Stat(filepath.Join(destDir, name))
		gt.NoError(t, err)
	}
	_, err = os.Stat(filepath.Join(destDir, "b.zip"))
	gt.True(t, os.IsNotExist(err))
}

func TestRunContinuesPastItemFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("first"))
	})
	mux.HandleFunc("/c.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("third"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destDir := t.TempDir()
	missing := server.URL + "/missing.txt"
	res, err := runner.Run(textEntries(server.URL+"/a.txt", missing, server.URL+"/c.txt"), runner.Options{
		DestDir: destDir,
		Extract: true,
	})
	gt.NoError(t, err)
	gt.Number(t, res.Processed).Equal(3)
	gt.Number(t, res.Succeeded).Equal(2)
	gt.Number(t, len(res.Failures)).Equal(1)
	gt.Value(t, res.Failures[0].URL).Equal(missing)
	gt.True(t, errdef.IsDownload(res.Failures[0].Err))

	_, err = os.Stat(filepath.Join(destDir, "a.txt"))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(destDir, "c.txt"))
	gt.NoError(t, err)
}

func TestRunPreservesManifestOrder(t *testing.T) {
	var mu sync.Mutex
	var gets []string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			mu.Lock()
			gets = append(gets, r.URL.Path)
			mu.Unlock()
		}
		w.Write([]byte("content"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	res, err := runner.Run(textEntries(server.URL+"/1.txt", server.URL+"/2.txt", server.URL+"/3.txt"), runner.Options{
		DestDir: t.TempDir(),
		Extract: true,
	})
	gt.NoError(t, err)
	gt.Number(t, res.Succeeded).Equal(3)

	mu.Lock()
	defer mu.Unlock()
	gt.Number(t, len(gets)).Equal(3)
	gt.Value(t, gets[0]).Equal("/1.txt")
	gt.Value(t, gets[1]).Equal("/2.txt")
	gt.Value(t, gets[2]).Equal("/3.txt")
}

func TestRunRetainsCorruptArchive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/bad.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not really a zip"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destDir := t.TempDir()
	res, err := runner.Run(textEntries(server.URL+"/bad.zip"), runner.Options{
		DestDir: destDir,
		Extract: true,
	})
	gt.NoError(t, err)
	gt.Number(t, res.Succeeded).Equal(0)
	gt.Number(t, len(res.Failures)).Equal(1)
	gt.True(t, errdef.IsExtraction(res.Failures[0].Err))

	// the archive survives a failed extraction
	_, err = os.Stat(filepath.Join(destDir, "bad.zip"))
	gt.NoError(t, err)
}

func TestRunSkipsExtractionWhenDisabled(t *testing.T) {
	archive := zipBytes(t, map[string]string{"inner.txt": "kept zipped"})
	mux := http.NewServeMux()
	mux.HandleFunc("/keep.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destDir := t.TempDir()
	res, err := runner.Run(textEntries(server.URL+"/keep.zip"), runner.Options{
		DestDir: destDir,
		Extract: false,
	})
	gt.NoError(t, err)
	gt.Number(t, res.Succeeded).Equal(1)

	_, err = os.Stat(filepath.Join(destDir, "keep.zip"))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(destDir, "inner.txt"))
	gt.True(t, os.IsNotExist(err))
}

func TestRunIsIdempotent(t *testing.T) {
	archive := zipBytes(t, map[string]string{"b1.txt": "entry"})
	mux := http.NewServeMux()
	mux.HandleFunc("/a.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("stable"))
	})
	mux.HandleFunc("/b.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	destDir := t.TempDir()
	entries := textEntries(server.URL+"/a.txt", server.URL+"/b.zip")
	for i := 0; i < 2; i++ {
		res, err := runner.Run(entries, runner.Options{DestDir: destDir, Extract: true})
		gt.NoError(t, err)
		gt.Number(t, res.Succeeded).Equal(2)
	}

	names, err := os.ReadDir(destDir)
	gt.NoError(t, err)
	var files []string
	for _, name := range names {
		if !name.IsDir() {
			files = append(files, name.Name())
		}
	}
	gt.Number(t, len(files)).Equal(2) // a.txt and b1.txt, no duplicates
}

func TestRunFailsFastOnUncreatableDestDir(t *testing.T) {
	destDir := t.TempDir()
	blocker := filepath.Join(destDir, "blocked")
	gt.NoError(t, os.WriteFile(blocker, []byte("a file, not a directory"), 0644))

	_, err := runner.Run(textEntries("http://example.test/a.txt"), runner.Options{
		DestDir: filepath.Join(blocker, "sub"),
		Extract: true,
	})
	gt.Error(t, err)
	gt.True(t, errdef.IsFatal(err))
}
