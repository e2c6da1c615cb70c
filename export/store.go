package export

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	Logger "github.com/dice-app/dice/utils/log"
	"github.com/pkg/errors"
)

const (
	DefaultS3Region = "us-west-1"
	S3UrlTemplate   = "https://%s.s3.%s.amazonaws.com/%s"
)

// ExportStore persists finished exports under a name and tells where they can
// be fetched from.
type ExportStore interface {
	Store(name string, body []byte) (key string, err error)
	GetUrlFromKey(key string) string
}

// LocalExportStore writes exports into a directory.
type LocalExportStore struct {
	dir string
}

func NewLocalExportStore(dir string) (*LocalExportStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "fail to create export dir %s", dir)
	}
	return &LocalExportStore{dir: dir}, nil
}

func (s *LocalExportStore) Store(name string, body []byte) (string, error) {
	key := filepath.Join(s.dir, filepath.Base(name))
	if err := ioutil.WriteFile(key, body, 0o644); err != nil {
		return "", errors.Wrapf(err, "fail to write export %s", key)
	}
	return key, nil
}

func (s *LocalExportStore) GetUrlFromKey(key string) string {
	return "file://" + key
}

type S3ExportStore struct {
	bucket   string
	region   string
	prefix   string
	uploader *s3manager.Uploader
}

// NewS3ExportStore uploads into bucket under prefix. Credentials come from the
// default aws credential chain.
func NewS3ExportStore(bucket, region, prefix string) (*S3ExportStore, error) {
	if region == "" {
		region = DefaultS3Region
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to create aws session")
	}
	return &S3ExportStore{
		bucket:   bucket,
		region:   region,
		prefix:   prefix,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

func (s *S3ExportStore) Store(name string, body []byte) (string, error) {
	key := s.prefix + name
	_, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", errors.Wrapf(err, "fail to upload export %s", key)
	}
	Logger.Log.WithField("key", key).Info("export uploaded to s3")
	return key, nil
}

func (s *S3ExportStore) GetUrlFromKey(key string) string {
	return fmt.Sprintf(S3UrlTemplate, s.bucket, s.region, key)
}
