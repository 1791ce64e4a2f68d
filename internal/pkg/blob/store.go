package blob

import (
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

// ErrNoObject is returned when the requested key does not exist
var ErrNoObject = errors.New("no object")

// Store keeps audio and transcript objects in a S3 compatible bucket.
// Writes are idempotent by key - rewriting the same key is always acceptable.
type Store struct {
	s3     *s3.S3
	bucket string
}

// NewStore creates Store instance for the bucket configured under the given key
func NewStore(bucketSetting string) (*Store, error) {
	bucket := cmdapp.Config.GetString(bucketSetting)
	if bucket == "" {
		return nil, errors.New("No bucket from " + bucketSetting)
	}
	endpoint := cmdapp.Config.GetString("blobStore.endpoint")
	if endpoint == "" {
		return nil, errors.New("No blobStore.endpoint provided")
	}
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String(cmdapp.Config.GetString("blobStore.region")),
		Endpoint: aws.String(endpoint),
		Credentials: credentials.NewStaticCredentials(
			cmdapp.Config.GetString("blobStore.key"),
			cmdapp.Config.GetString("blobStore.secret"), ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Wrap(err, "Can't create aws session")
	}
	cmdapp.Log.Infof("Init Blob Store at %s, bucket: %s", endpoint, bucket)
	return &Store{s3: s3.New(sess), bucket: bucket}, nil
}

// Put writes the object under key with content type and custom metadata
func (st *Store) Put(key string, r io.ReadSeeker, size int64, contentType string, meta map[string]string) error {
	var m map[string]*string
	if len(meta) != 0 {
		m = make(map[string]*string, len(meta))
		for k, v := range meta {
			v := v
			m[k] = &v
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := st.s3.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(st.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		Metadata:      m,
	})
	if err != nil {
		return errors.Wrap(err, "can't put object "+key)
	}
	return nil
}

// Get returns reader for the object, ErrNoObject if the key is absent
func (st *Store) Get(key string) (io.ReadCloser, error) {
	obj, err := st.s3.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNoObject
		}
		return nil, errors.Wrap(err, "can't get object "+key)
	}
	return obj.Body, nil
}

// Head returns object size, ErrNoObject if the key is absent
func (st *Store) Head(key string) (int64, error) {
	obj, err := st.s3.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, ErrNoObject
		}
		return 0, errors.Wrap(err, "can't head object "+key)
	}
	return aws.Int64Value(obj.ContentLength), nil
}

func isNotFound(err error) bool {
	if ae, ok := err.(awserr.RequestFailure); ok {
		return ae.StatusCode() == 404
	}
	if ae, ok := err.(awserr.Error); ok {
		return ae.Code() == s3.ErrCodeNoSuchKey || ae.Code() == "NotFound"
	}
	return false
}
