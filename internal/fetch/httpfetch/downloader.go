package httpfetch

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fetchkit/fetchkit/internal/utils"
)

type Downloader struct{}

func (d *Downloader) ValidateJob(job *utils.FetchJob) error {
	parsedURL, err := url.Parse(job.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", parsedURL.Scheme)
	}

	client := utils.NewFetchHTTPClient(job.HTTPClientConfig)
	req, err := http.NewRequest("HEAD", job.URL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error checking URL: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
		if location := resp.Header.Get("Location"); location != "" {
			job.URL = location
		}
	} else if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("URL not found (404)")
	} else if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned error: %d", resp.StatusCode)
	}
	return nil
}

func (d *Downloader) BuildJob(job *utils.FetchJob) error {
	client := utils.NewFetchHTTPClient(job.HTTPClientConfig)
	fileSize, headerName := getFileInfo(job.URL, client)

	name := job.OutputPath
	if name == "" {
		name = artifactName(job.URL, headerName)
	}
	// Overwrite semantics: an existing artifact of the same name is replaced,
	// re-running a manifest converges on the same file set.
	job.OutputPath = filepath.Join(job.DestDir, name)
	job.Metadata["fileSize"] = fileSize
	return nil
}

func (d *Downloader) Download(job *utils.FetchJob) error {
	client := utils.NewFetchHTTPClient(job.HTTPClientConfig)
	fileSize, _ := job.Metadata["fileSize"].(int64)

	progressCh := make(chan int64, 100)
	progressDone := make(chan struct{})
	startTime := time.Now()

	go func() {
		defer close(progressDone)
		var totalDownloaded int64
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case bytes, ok := <-progressCh:
				if !ok {
					if job.ProgressFunc != nil {
						job.ProgressFunc(totalDownloaded, fileSize)
					}
					return
				}
				totalDownloaded += bytes
			case <-ticker.C:
				if job.ProgressFunc != nil {
					job.ProgressFunc(totalDownloaded, fileSize)
				}
				job.Metadata["elapsedTime"] = time.Since(startTime).Seconds()
			}
		}
	}()

	err := PerformSimpleDownload(job.URL, job.OutputPath, client, progressCh)
	<-progressDone
	job.Metadata["totalTime"] = time.Since(startTime).Seconds()
	return err
}

// artifactName picks the local file name: the URL's final path segment,
// falling back to the Content-Disposition name, then to "download".
func artifactName(link, headerName string) string {
	parsedURL, err := url.Parse(link)
	if err == nil {
		pathParts := strings.Split(parsedURL.Path, "/")
		if segment := pathParts[len(pathParts)-1]; segment != "" {
			return segment
		}
	}
	if headerName != "" {
		return headerName
	}
	return "download"
}

var filenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

// getFileInfo probes the URL with HEAD for the reported size and any
// Content-Disposition filename. Probe failures are non-fatal: size stays 0
// and the GET attempt decides the item's fate.
func getFileInfo(link string, client *utils.FetchHTTPClient) (int64, string) {
	req, err := http.NewRequest("HEAD", link, nil)
	if err != nil {
		return 0, ""
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, ""
	}
	defer resp.Body.Close()
	filename := ""
	if contentDisposition := resp.Header.Get("Content-Disposition"); contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if fn, ok := params["filename"]; ok && fn != "" {
				filename = filenameRegex.ReplaceAllString(fn, "_")
			} else if fn, ok := params["filename*"]; ok && fn != "" {
				if strings.HasPrefix(fn, "UTF-8''") {
					unescaped, _ := url.PathUnescape(strings.TrimPrefix(fn, "UTF-8''"))
					filename = filenameRegex.ReplaceAllString(unescaped, "_")
				}
			}
		}
	}
	var size int64
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		if parsed, err := strconv.ParseInt(contentLength, 10, 64); err == nil && parsed > 0 {
			size = parsed
		}
	}
	return size, filename
}
