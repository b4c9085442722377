package filestorage

import (
	"bytes"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

const (
	defaultRegion = "sa-east-1"
	acl           = "public-read"
)

// S3Client is a client for AWS S3 service
type S3Client struct {
	uploader *s3manager.Uploader
	svc      *s3.S3
}

// NewAWSClient returns a client with implementation for S3.
func NewAWSClient(region, accessKeyID, secretAccessKey string) (*S3Client, error) {
	if accessKeyID == "" {
		return nil, fmt.Errorf("missing ACCESS_KEY_ID environment variable")
	}
	if secretAccessKey == "" {
		return nil, fmt.Errorf("missing SECRET_ACCESS_KEY environment variable")
	}
	if region == "" {
		region = defaultRegion
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKeyID, secretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("falha ao criar sessão da AWS, erro %v", err)
	}
	return &S3Client{
		uploader: s3manager.NewUploader(sess),
		svc:      s3.New(sess),
	}, nil
}

// Upload sends the bytes to bucket as fileName and returns the public
// location of the object.
func (c *S3Client) Upload(b []byte, bucket, fileName string) (string, error) {
	up, err := c.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(bucket),
		ACL:    aws.String(acl),
		Key:    aws.String(fileName),
		Body:   bytes.NewReader(b),
	})
	if err != nil {
		return "", fmt.Errorf("failed to send file [%s] to bucket [%s], error %v", fileName, bucket, err)
	}
	return up.Location, nil
}

// FileExists runs a HEAD on the object.
func (c *S3Client) FileExists(bucket, fileName string) bool {
	_, err := c.svc.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileName),
	})
	return err == nil
}
