// Package manifest parses URL lists. The plain-text format is an ordered,
// whitespace-separated list of URLs with #-comments; the YAML format groups
// entries by source type and allows per-entry output names.
package manifest

import (
	"net/url"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/fetchkit/fetchkit/internal/errdef"
)

type Entry struct {
	URL        string
	OutputName string // optional override for the artifact name
	SourceType string
}

type BatchEntry struct {
	OutputName string `yaml:"op,omitempty"`
	Link       string `yaml:"link"`
}

type BatchFile map[string][]BatchEntry

// ReadList parses a plain-text manifest. Token order is preserved and
// duplicates are kept; blank lines and comment lines are skipped.
func ReadList(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "error reading manifest", goerr.T(errdef.TagManifest), goerr.V("path", path))
	}
	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, token := range strings.Fields(trimmed) {
			entries = append(entries, Entry{
				URL:        token,
				SourceType: SourceTypeFor(token),
			})
		}
	}
	return entries, nil
}

// ReadBatch parses a YAML manifest mapping source type to entries.
func ReadBatch(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "error reading batch manifest", goerr.T(errdef.TagManifest), goerr.V("path", path))
	}
	var batchFile BatchFile
	if err := yaml.Unmarshal(data, &batchFile); err != nil {
		return nil, goerr.Wrap(err, "error parsing batch manifest", goerr.T(errdef.TagManifest), goerr.V("path", path))
	}
	var entries []Entry
	for sourceType, batchEntries := range batchFile {
		normalized := normalizeSourceType(sourceType)
		if normalized == "" {
			return nil, goerr.New("unknown source type in batch manifest", goerr.T(errdef.TagManifest), goerr.V("type", sourceType))
		}
		for _, entry := range batchEntries {
			if entry.Link == "" {
				continue
			}
			entries = append(entries, Entry{
				URL:        entry.Link,
				OutputName: entry.OutputName,
				SourceType: normalized,
			})
		}
	}
	return entries, nil
}

// SourceTypeFor infers the source type from the URL scheme. Unknown schemes
// fall through to http so the downloader rejects them as a per-item failure
// instead of the parser dropping the entry.
func SourceTypeFor(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "http"
	}
	if parsed.Scheme == "s3" {
		return "s3"
	}
	return "http"
}

func normalizeSourceType(sourceType string) string {
	switch strings.ToLower(sourceType) {
	case "http", "https":
		return "http"
	case "s3":
		return "s3"
	}
	return ""
}
