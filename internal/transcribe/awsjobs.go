package transcribe

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

// TranscribeAPI is the subset of the AWS Transcribe client used by AWSJobClient.
type TranscribeAPI interface {
	StartTranscriptionJob(ctx context.Context, params *awstranscribe.StartTranscriptionJobInput, optFns ...func(*awstranscribe.Options)) (*awstranscribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *awstranscribe.GetTranscriptionJobInput, optFns ...func(*awstranscribe.Options)) (*awstranscribe.GetTranscriptionJobOutput, error)
}

// AWSJobClient runs jobs on Amazon Transcribe. The job name doubles as its id.
type AWSJobClient struct {
	api TranscribeAPI
}

// NewAWSJobClient creates a job client from an SDK config.
func NewAWSJobClient(cfg aws.Config) *AWSJobClient {
	return &AWSJobClient{api: awstranscribe.NewFromConfig(cfg)}
}

// NewAWSJobClientWithAPI wraps an existing Transcribe client.
func NewAWSJobClientWithAPI(api TranscribeAPI) *AWSJobClient {
	return &AWSJobClient{api: api}
}

// StartJob submits a transcription job for sourceURI.
func (c *AWSJobClient) StartJob(ctx context.Context, name, sourceURI, language, format string) (string, error) {
	_, err := c.api.StartTranscriptionJob(ctx, &awstranscribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(name),
		Media:                &types.Media{MediaFileUri: aws.String(sourceURI)},
		MediaFormat:          types.MediaFormat(format),
		LanguageCode:         types.LanguageCode(language),
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

// JobStatus fetches the current job snapshot.
func (c *AWSJobClient) JobStatus(ctx context.Context, id string) (*Job, error) {
	out, err := c.api.GetTranscriptionJob(ctx, &awstranscribe.GetTranscriptionJobInput{
		TranscriptionJobName: aws.String(id),
	})
	if err != nil {
		return nil, err
	}
	tj := out.TranscriptionJob
	if tj == nil {
		return nil, fmt.Errorf("job %s: empty response", id)
	}

	job := &Job{
		ID:      id,
		Backend: "aws",
		Status:  mapAWSStatus(tj.TranscriptionJobStatus),
	}
	if tj.Transcript != nil {
		job.ResultURI = aws.ToString(tj.Transcript.TranscriptFileUri)
	}
	job.FailureReason = aws.ToString(tj.FailureReason)
	return job, nil
}

func mapAWSStatus(s types.TranscriptionJobStatus) JobStatus {
	switch s {
	case types.TranscriptionJobStatusQueued:
		return JobPending
	case types.TranscriptionJobStatusInProgress:
		return JobRunning
	case types.TranscriptionJobStatusCompleted:
		return JobCompleted
	case types.TranscriptionJobStatusFailed:
		return JobFailed
	default:
		return JobStatus(s)
	}
}
