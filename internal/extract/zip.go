// Package extract unpacks zip artifacts in place. The archive is deleted
// only after every entry extracted; any failure retains it on disk.
package extract

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// IsZipArchive matches the case-sensitive .zip suffix the runner keys
// extraction on.
func IsZipArchive(name string) bool {
	return strings.HasSuffix(name, ".zip")
}

// ZipAndRemove extracts all entries of archivePath into destDir and removes
// the archive on success. It returns the number of extracted entries.
func ZipAndRemove(archivePath, destDir string) (int, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("error opening archive: %v", err)
	}
	extracted := 0
	for _, file := range reader.File {
		if err := extractEntry(file, destDir); err != nil {
			reader.Close()
			return extracted, err
		}
		extracted++
	}
	if err := reader.Close(); err != nil {
		return extracted, fmt.Errorf("error closing archive: %v", err)
	}
	if err := os.Remove(archivePath); err != nil {
		return extracted, fmt.Errorf("error removing archive after extraction: %v", err)
	}
	log.Debug().Str("op", "extract/zip").Msgf("Extracted %d entries from %s", extracted, filepath.Base(archivePath))
	return extracted, nil
}

func extractEntry(file *zip.File, destDir string) error {
	destPath := filepath.Join(destDir, file.Name)
	// Reject entries that escape the destination directory
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("entry path escapes destination: %s", file.Name)
	}
	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("error creating entry directory: %v", err)
	}
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("error opening entry %s: %v", file.Name, err)
	}
	defer rc.Close()
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error creating entry file %s: %v", destPath, err)
	}
	defer destFile.Close()
	if _, err := io.Copy(destFile, rc); err != nil {
		return fmt.Errorf("error writing entry %s: %v", destPath, err)
	}
	return nil
}
