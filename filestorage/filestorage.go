package filestorage

import (
	"fmt"
	"strings"
)

// FileStorage is the place where candidates' photos and exported
// snapshots are kept.
type FileStorage interface {
	// Upload writes b as fileName inside bucket and returns the
	// location of the stored file.
	Upload(b []byte, bucket, fileName string) (string, error)

	// FileExists checks if fileName is already inside bucket.
	FileExists(bucket, fileName string) bool
}

// Open picks the storage for a destination and returns it along with
// the bucket to be used. Destinations are s3://BUCKET, gs://BUCKET,
// drive://FOLDER_ID or a local directory.
func Open(destination string, cfg Config) (FileStorage, string, error) {
	switch {
	case strings.HasPrefix(destination, "s3://"):
		c, err := NewAWSClient(cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
		if err != nil {
			return nil, "", err
		}
		return c, strings.TrimPrefix(destination, "s3://"), nil
	case strings.HasPrefix(destination, "gs://"):
		c, err := NewGCSClient()
		if err != nil {
			return nil, "", err
		}
		return c, strings.TrimPrefix(destination, "gs://"), nil
	case strings.HasPrefix(destination, "drive://"):
		if cfg.DriveCredentialsFile == "" || cfg.DriveOAuthTokenFile == "" {
			return nil, "", fmt.Errorf("informe o arquivo de credenciais e o token oauth do Google Drive")
		}
		c, err := NewGoogleDriveStorage(cfg.DriveCredentialsFile, cfg.DriveOAuthTokenFile)
		if err != nil {
			return nil, "", err
		}
		return c, strings.TrimPrefix(destination, "drive://"), nil
	default:
		return NewLocalStorage(), destination, nil
	}
}

// Config holds the credentials used by the remote storages.
type Config struct {
	AWSRegion            string
	AWSAccessKeyID       string
	AWSSecretAccessKey   string
	DriveCredentialsFile string
	DriveOAuthTokenFile  string
}
