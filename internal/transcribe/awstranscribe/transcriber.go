// Package awstranscribe implements transcribe.Transcriber on Amazon
// Transcribe, staging media in S3.
package awstranscribe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstr "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go"

	"github.com/jwulff/captionbuddy/internal/caption"
	"github.com/jwulff/captionbuddy/internal/transcribe"
)

// ObjectAPI is the part of the S3 client used for staging media and results.
type ObjectAPI interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// JobAPI is the part of the Transcribe client used to run jobs.
type JobAPI interface {
	GetTranscriptionJob(ctx context.Context, in *awstr.GetTranscriptionJobInput, optFns ...func(*awstr.Options)) (*awstr.GetTranscriptionJobOutput, error)
	StartTranscriptionJob(ctx context.Context, in *awstr.StartTranscriptionJobInput, optFns ...func(*awstr.Options)) (*awstr.StartTranscriptionJobOutput, error)
}

// Options configures a Transcriber.
type Options struct {
	Bucket       string
	LanguageCode string
	PollInterval time.Duration
}

// Transcriber uploads media to S3, runs a Transcribe job and converts the
// word items of the result into captions.
type Transcriber struct {
	objects ObjectAPI
	jobs    JobAPI
	opts    Options
}

var _ transcribe.Transcriber = (*Transcriber)(nil)

// New returns a Transcriber using the given clients.
func New(objects ObjectAPI, jobs JobAPI, opts Options) *Transcriber {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.LanguageCode == "" {
		opts.LanguageCode = string(types.LanguageCodeEnUs)
	}
	return &Transcriber{objects: objects, jobs: jobs, opts: opts}
}

// NewFromConfig builds S3 and Transcribe clients from cfg.
func NewFromConfig(cfg aws.Config, opts Options) *Transcriber {
	return New(s3.NewFromConfig(cfg), awstr.NewFromConfig(cfg), opts)
}

// LoadDefault loads the default AWS credential chain for region.
func LoadDefault(ctx context.Context, region string, opts Options) (*Transcriber, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewFromConfig(cfg, opts), nil
}

// Transcribe runs (or reuses) the job for mediaRef and returns its captions.
// Jobs are keyed by a content hash, so retranscribing the same file reuses
// the earlier upload and result.
func (t *Transcriber) Transcribe(ctx context.Context, mediaRef string) ([]caption.Segment, error) {
	if t.opts.Bucket == "" {
		return nil, transcribe.RecognizerUnavailable("no S3 bucket configured", nil)
	}

	hash, err := fileHash(mediaRef)
	if err != nil {
		return nil, transcribe.Failed("read media", err)
	}
	mediaKey := fmt.Sprintf("uploads/%s_%s", hash, filepath.Base(mediaRef))
	jobName := fmt.Sprintf("captionbuddy-%s", hash)

	if err := t.ensureUploaded(ctx, mediaKey, mediaRef); err != nil {
		return nil, classify("upload media", err)
	}
	if err := t.ensureJob(ctx, jobName, mediaKey, mediaFormat(mediaRef)); err != nil {
		return nil, err
	}

	resultKey := jobName + ".json"
	log.Printf("awstranscribe: reading result s3://%s/%s", t.opts.Bucket, resultKey)
	out, err := t.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.opts.Bucket),
		Key:    aws.String(resultKey),
	})
	if err != nil {
		return nil, classify("get result", err)
	}
	defer out.Body.Close()

	segs, err := decodeResult(out.Body)
	if err != nil {
		return nil, transcribe.Failed("parse result", err)
	}
	return segs, nil
}

func (t *Transcriber) ensureUploaded(ctx context.Context, key, path string) error {
	_, err := t.objects.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(t.opts.Bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		log.Printf("awstranscribe: %s already uploaded", key)
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	log.Printf("awstranscribe: uploading %s", key)
	_, err = t.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(t.opts.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	return err
}

// ensureJob starts the job when it does not exist yet and waits for it to
// finish.
func (t *Transcriber) ensureJob(ctx context.Context, jobName, mediaKey string, format types.MediaFormat) error {
	job, err := t.job(ctx, jobName)
	if err != nil {
		return classify("get job", err)
	}

	if job == nil {
		mediaURI := fmt.Sprintf("s3://%s/%s", t.opts.Bucket, mediaKey)
		log.Printf("awstranscribe: starting job %s", jobName)
		_, err := t.jobs.StartTranscriptionJob(ctx, &awstr.StartTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
			LanguageCode:         types.LanguageCode(t.opts.LanguageCode),
			MediaFormat:          format,
			Media:                &types.Media{MediaFileUri: aws.String(mediaURI)},
			OutputBucketName:     aws.String(t.opts.Bucket),
		})
		if err != nil {
			return classify("start job", err)
		}
	} else if done, err := jobFinished(job); done || err != nil {
		return err
	}

	ticker := time.NewTicker(t.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return transcribe.Failed("waiting for job", ctx.Err())
		case <-ticker.C:
			job, err := t.job(ctx, jobName)
			if err != nil {
				return classify("get job", err)
			}
			if job == nil {
				return transcribe.Failedf("job %s disappeared", jobName)
			}
			log.Printf("awstranscribe: job %s status %s", jobName, job.TranscriptionJobStatus)
			if done, err := jobFinished(job); done || err != nil {
				return err
			}
		}
	}
}

// job returns the named job, or nil when it does not exist.
func (t *Transcriber) job(ctx context.Context, jobName string) (*types.TranscriptionJob, error) {
	out, err := t.jobs.GetTranscriptionJob(ctx, &awstr.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
	})
	if err != nil {
		if isNotFound(err) || strings.Contains(err.Error(), "couldn't be found") {
			return nil, nil
		}
		return nil, err
	}
	return out.TranscriptionJob, nil
}

func jobFinished(job *types.TranscriptionJob) (bool, error) {
	switch job.TranscriptionJobStatus {
	case types.TranscriptionJobStatusCompleted:
		return true, nil
	case types.TranscriptionJobStatusFailed:
		return true, transcribe.Failed(aws.ToString(job.FailureReason), nil)
	default:
		return false, nil
	}
}

// classify maps SDK errors onto transcription error kinds.
func classify(op string, err error) error {
	var te *transcribe.Error
	if errors.As(err, &te) {
		return err
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException", "UnrecognizedClientException",
			"InvalidAccessKeyId", "ExpiredToken", "ExpiredTokenException":
			return transcribe.AuthorizationDenied(op, err)
		case "LimitExceededException", "ServiceUnavailable", "InternalFailureException":
			return transcribe.RecognizerUnavailable(op, err)
		}
	}
	return transcribe.Failed(op, err)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if code == "NotFound" || code == "NotFoundException" || code == "NoSuchKey" || code == "404" {
			return true
		}
	}
	return strings.Contains(err.Error(), "NotFound:")
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

func mediaFormat(path string) types.MediaFormat {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "mov":
		return types.MediaFormatMp4
	case "":
		return types.MediaFormatMp4
	default:
		return types.MediaFormat(ext)
	}
}
