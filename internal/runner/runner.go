// Package runner executes manifest entries strictly in order: validate,
// build, download, then extract for zip artifacts. Item failures are
// recorded and the loop continues; only setup failures abort the run.
package runner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/fetchkit/fetchkit/internal/errdef"
	"github.com/fetchkit/fetchkit/internal/extract"
	"github.com/fetchkit/fetchkit/internal/fetch/httpfetch"
	"github.com/fetchkit/fetchkit/internal/fetch/s3fetch"
	"github.com/fetchkit/fetchkit/internal/manifest"
	"github.com/fetchkit/fetchkit/internal/output"
	"github.com/fetchkit/fetchkit/internal/utils"
)

// downloaderRegistry maps source types to their downloader implementations
var downloaderRegistry = map[string]utils.Downloader{
	"http": &httpfetch.Downloader{},
	"s3":   &s3fetch.Downloader{},
}

type Options struct {
	DestDir    string
	Extract    bool
	S3Profile  string
	HTTPConfig utils.HTTPClientConfig
	FileLog    bool
}

type Failure struct {
	URL string
	Err error
}

type Result struct {
	Processed int
	Succeeded int
	Failures  []Failure
}

// Run processes entries sequentially into opts.DestDir. The destination
// directory is created before the first download; a failure there is fatal.
func Run(entries []manifest.Entry, opts Options) (*Result, error) {
	if err := os.MkdirAll(opts.DestDir, 0755); err != nil {
		return nil, goerr.Wrap(err, "error creating destination directory", goerr.T(errdef.TagFilesystem), goerr.V("dir", opts.DestDir))
	}
	if opts.FileLog {
		logFile, err := os.OpenFile(utils.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			utils.SetLogOutput(logFile)
			defer logFile.Close()
		}
	} else {
		// Keep the structured log off the live display
		utils.SetLogOutput(io.Discard)
	}

	outputMgr := output.NewManager()
	outputMgr.StartDisplay()
	defer outputMgr.StopDisplay()

	result := &Result{}
	for _, entry := range entries {
		result.Processed++
		itemID := outputMgr.Register(entry.URL)
		job := utils.FetchJob{
			ID:               uuid.NewString(),
			SourceType:       entry.SourceType,
			URL:              entry.URL,
			DestDir:          opts.DestDir,
			OutputPath:       entry.OutputName,
			Metadata:         make(map[string]any),
			HTTPClientConfig: opts.HTTPConfig,
			ProgressFunc: func(downloaded, total int64) {
				outputMgr.SetProgress(itemID, downloaded, total)
			},
		}
		if entry.SourceType == "s3" {
			job.Metadata["profile"] = opts.S3Profile
		}

		downloader, exists := downloaderRegistry[job.SourceType]
		if !exists {
			result.record(outputMgr, itemID, entry.URL, goerr.New("unknown source type", goerr.T(errdef.TagDownload), goerr.V("type", job.SourceType)))
			continue
		}

		outputMgr.SetMessage(itemID, fmt.Sprintf("Fetching %s", entry.URL))
		outputMgr.SetStatus(itemID, "downloading")

		if err := downloader.ValidateJob(&job); err != nil {
			result.record(outputMgr, itemID, entry.URL, goerr.Wrap(err, "validation failed", goerr.T(errdef.TagDownload), goerr.V("url", entry.URL)))
			continue
		}
		if err := downloader.BuildJob(&job); err != nil {
			result.record(outputMgr, itemID, entry.URL, goerr.Wrap(err, "build failed", goerr.T(errdef.TagDownload), goerr.V("url", entry.URL)))
			continue
		}
		if err := downloader.Download(&job); err != nil {
			result.record(outputMgr, itemID, entry.URL, goerr.Wrap(err, "download failed", goerr.T(errdef.TagDownload), goerr.V("url", entry.URL)))
			continue
		}

		artifact := filepath.Base(job.OutputPath)
		if opts.Extract && extract.IsZipArchive(artifact) {
			outputMgr.SetStatus(itemID, "extracting")
			outputMgr.SetMessage(itemID, fmt.Sprintf("Extracting %s", artifact))
			// Extract exactly the file this download produced, never a
			// directory glob; the archive stays on disk when this fails.
			if _, err := extract.ZipAndRemove(job.OutputPath, opts.DestDir); err != nil {
				result.record(outputMgr, itemID, entry.URL, goerr.Wrap(err, "extraction failed, archive retained", goerr.T(errdef.TagExtraction), goerr.V("archive", job.OutputPath)))
				continue
			}
		}

		result.Succeeded++
		outputMgr.Complete(itemID, fmt.Sprintf("Completed %s", artifact))
	}
	return result, nil
}

func (r *Result) record(outputMgr *output.Manager, itemID int, url string, err error) {
	r.Failures = append(r.Failures, Failure{URL: url, Err: err})
	outputMgr.ReportError(itemID, err)
	outputMgr.SetMessage(itemID, fmt.Sprintf("Failed %s", url))
}
