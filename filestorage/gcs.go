package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

const (
	timeout = time.Second * 50
)

// GSCClient is a client for google cloud storage
type GSCClient struct {
	client *storage.Client
}

// NewGCSClient returns an instance of GCS using the application
// default credentials.
func NewGCSClient() (*GSCClient, error) {
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("falha ao criar client do GCS, erro %q", err)
	}
	return &GSCClient{
		client: client,
	}, nil
}

// Upload copies the bytes to bucket/fileName and returns the public
// URL of the object.
func (gcs *GSCClient) Upload(b []byte, bucket, fileName string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	wc := gcs.client.Bucket(bucket).Object(fileName).NewWriter(ctx)
	if _, err := io.Copy(wc, bytes.NewReader(b)); err != nil {
		return "", fmt.Errorf("falha ao copiar conteúdo de arquivo local para o bucket no GCS (%s/%s), erro %q", bucket, fileName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("falha ao fechar storage.Writer object (%s/%s), erro %q", bucket, fileName, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, fileName), nil
}

// FileExists checks the object attributes, any failure counts as
// absent.
func (gcs *GSCClient) FileExists(bucket, fileName string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := gcs.client.Bucket(bucket).Object(fileName).Attrs(ctx)
	return err == nil
}
