package s3fetch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fetchkit/fetchkit/internal/utils"
)

type Downloader struct{}

func (d *Downloader) ValidateJob(job *utils.FetchJob) error {
	bucket, key, err := parseS3URL(job.URL)
	if err != nil {
		return err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return fmt.Errorf("S3 URL must point to an object, not a prefix")
	}
	job.Metadata["bucket"] = bucket
	job.Metadata["key"] = key
	log.Debug().Str("op", "s3fetch/validate").Msgf("job validated for s3://%s/%s", bucket, key)
	return nil
}

func (d *Downloader) BuildJob(job *utils.FetchJob) error {
	bucket := job.Metadata["bucket"].(string)
	key := job.Metadata["key"].(string)
	profile, _ := job.Metadata["profile"].(string)
	client, err := getS3Client(profile)
	if err != nil {
		return fmt.Errorf("error creating S3 client: %v", err)
	}
	size, err := getObjectSize(context.Background(), client, bucket, key)
	if err != nil {
		return fmt.Errorf("error getting S3 object info: %v", err)
	}
	name := job.OutputPath
	if name == "" {
		parts := strings.Split(key, "/")
		name = parts[len(parts)-1]
	}
	job.OutputPath = filepath.Join(job.DestDir, name)
	job.Metadata["fileSize"] = size
	return nil
}

func (d *Downloader) Download(job *utils.FetchJob) error {
	bucket := job.Metadata["bucket"].(string)
	key := job.Metadata["key"].(string)
	profile, _ := job.Metadata["profile"].(string)
	size, _ := job.Metadata["fileSize"].(int64)
	client, err := getS3Client(profile)
	if err != nil {
		return fmt.Errorf("error creating S3 client: %v", err)
	}
	log.Info().Str("op", "s3fetch/download").Msgf("Starting download for s3://%s/%s", bucket, key)
	return performS3Download(context.Background(), client, bucket, key, job.OutputPath, size, job.ProgressFunc)
}

func parseS3URL(url string) (string, string, error) {
	url = strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(url, "/", 2)
	if len(parts) < 1 || parts[0] == "" {
		return "", "", fmt.Errorf("invalid S3 URL format")
	}
	bucket := parts[0]
	key := ""
	if len(parts) > 1 {
		key = parts[1]
	}
	return bucket, key, nil
}
