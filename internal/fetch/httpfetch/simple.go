package httpfetch

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fetchkit/fetchkit/internal/utils"
)

// PerformSimpleDownload fetches url into outputPath with a single GET
// attempt. The body streams into a .part file under the temp directory and
// is renamed into place on success, so a failed transfer never leaves a
// partial artifact in the destination.
func PerformSimpleDownload(url, outputPath string, client *utils.FetchHTTPClient, progressCh chan<- int64) error {
	defer close(progressCh)
	tempDir := filepath.Join(filepath.Dir(outputPath), utils.TempDirName)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fmt.Errorf("error creating temp directory: %v", err)
	}
	tempOutputPath := fmt.Sprintf("%s.part", filepath.Join(tempDir, filepath.Base(outputPath)))

	err := downloadAttempt(url, tempOutputPath, client, progressCh)
	if err != nil {
		return err
	}
	if err := os.Rename(tempOutputPath, outputPath); err != nil {
		return fmt.Errorf("error renaming (finalizing) output file: %v", err)
	}
	log.Info().Str("op", "httpfetch/simple").Msgf("Download successful for %s", outputPath)
	return nil
}

func downloadAttempt(url, tempOutputPath string, client *utils.FetchHTTPClient, progressCh chan<- int64) error {
	outFile, err := os.OpenFile(tempOutputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error creating output file: %v", err)
	}
	defer outFile.Close()

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return fmt.Errorf("error creating GET request: %v", err)
	}
	req.Header.Set("Connection", "keep-alive")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error executing GET request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			_, writeErr := outFile.Write(buffer[:bytesRead])
			if writeErr != nil {
				return fmt.Errorf("error writing to output file: %v", writeErr)
			}
			progressCh <- int64(bytesRead)
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return fmt.Errorf("error reading response body: %v", readErr)
		}
	}
	outFile.Sync()
	return nil
}
