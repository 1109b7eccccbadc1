package utils

// Downloader is the three-phase contract every source type implements.
// ValidateJob checks the URL and reachability, BuildJob resolves the final
// artifact path and size, Download performs the single transfer attempt.
type Downloader interface {
	ValidateJob(job *FetchJob) error
	BuildJob(job *FetchJob) error
	Download(job *FetchJob) error
}

type FetchJob struct {
	ID               string
	SourceType       string // "http" or "s3"
	URL              string
	DestDir          string
	OutputPath       string // set by BuildJob, always inside DestDir
	Metadata         map[string]any
	HTTPClientConfig HTTPClientConfig
	ProgressFunc     func(downloaded, total int64)
}
