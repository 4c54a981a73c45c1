package s3_helper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/danthegoodman1/icedb/gologger"
	"github.com/danthegoodman1/icedb/utils"
	"github.com/rs/zerolog"
)

var (
	logger = gologger.NewLogger()

	UploadTimeout = time.Minute * 2
)

func newSession() (*session.Session, error) {
	s3Config := &aws.Config{
		Region:      aws.String(utils.AWS_DEFAULT_REGION),
		Credentials: credentials.NewEnvCredentials(),
	}
	if utils.S3_ENDPOINT != "" {
		s3Config.Endpoint = aws.String(utils.S3_ENDPOINT)
		s3Config.S3ForcePathStyle = aws.Bool(true)
	}

	s3Session, err := session.NewSession(s3Config)
	if err != nil {
		return nil, fmt.Errorf("error making new session: %w", err)
	}
	return s3Session, nil
}

// WriteBytesToS3 uploads b under fileName, retrying transient failures.
func WriteBytesToS3(ctx context.Context, bucket, fileName string, b []byte, contentType *string) (*s3manager.UploadOutput, error) {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	s3Session, err := newSession()
	if err != nil {
		return nil, err
	}
	uploader := s3manager.NewUploader(s3Session)

	var output *s3manager.UploadOutput
	s := time.Now()
	err = utils.Retry(ctx, UploadTimeout, func(ctx context.Context) error {
		var uploadErr error
		output, uploadErr = uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(fileName),
			Body:        bytes.NewReader(b),
			ContentType: contentType,
		})
		return uploadErr
	})
	if err != nil {
		return nil, fmt.Errorf("error uploading to s3: %w", err)
	}

	d := time.Since(s)
	logger.Debug().Str("fileName", fileName).Int("bytes", len(b)).Int64("durationNS", d.Nanoseconds()).Str("durationHuman", d.String()).Msg("uploaded file to s3")

	return output, nil
}

func ReadBytesFromS3(ctx context.Context, bucket, fileName string) ([]byte, error) {
	ctx = logger.WithContext(ctx)
	logger := zerolog.Ctx(ctx)

	s3Session, err := newSession()
	if err != nil {
		return nil, err
	}

	downloader := s3manager.NewDownloader(s3Session)

	buf := &aws.WriteAtBuffer{}

	s := time.Now()
	_, err = downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fileName),
	})
	if err != nil {
		return nil, fmt.Errorf("error downloading from s3: %w", err)
	}

	d := time.Since(s)
	logger.Debug().Str("fileName", fileName).Int64("durationNS", d.Nanoseconds()).Str("durationHuman", d.String()).Msg("downloaded file from s3")

	return buf.Bytes(), nil
}
