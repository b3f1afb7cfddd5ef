package transcribe

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

type fakeTranscribeAPI struct {
	startInput *awstranscribe.StartTranscriptionJobInput
	job        *types.TranscriptionJob
	err        error
}

func (f *fakeTranscribeAPI) StartTranscriptionJob(ctx context.Context, in *awstranscribe.StartTranscriptionJobInput, _ ...func(*awstranscribe.Options)) (*awstranscribe.StartTranscriptionJobOutput, error) {
	f.startInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &awstranscribe.StartTranscriptionJobOutput{}, nil
}

func (f *fakeTranscribeAPI) GetTranscriptionJob(ctx context.Context, in *awstranscribe.GetTranscriptionJobInput, _ ...func(*awstranscribe.Options)) (*awstranscribe.GetTranscriptionJobOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &awstranscribe.GetTranscriptionJobOutput{TranscriptionJob: f.job}, nil
}

func TestAWSJobClient_StartJob(t *testing.T) {
	api := &fakeTranscribeAPI{}
	c := NewAWSJobClientWithAPI(api)

	id, err := c.StartJob(context.Background(), "transcripcion-abc", "s3://diario/audio/x.wav", "es-ES", "wav")
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if id != "transcripcion-abc" {
		t.Errorf("id = %q, want job name", id)
	}
	in := api.startInput
	if aws.ToString(in.TranscriptionJobName) != "transcripcion-abc" {
		t.Errorf("job name = %q", aws.ToString(in.TranscriptionJobName))
	}
	if aws.ToString(in.Media.MediaFileUri) != "s3://diario/audio/x.wav" {
		t.Errorf("media uri = %q", aws.ToString(in.Media.MediaFileUri))
	}
	if in.MediaFormat != types.MediaFormatWav {
		t.Errorf("media format = %q, want wav", in.MediaFormat)
	}
	if in.LanguageCode != types.LanguageCodeEsEs {
		t.Errorf("language = %q, want es-ES", in.LanguageCode)
	}
}

func TestAWSJobClient_JobStatus(t *testing.T) {
	tests := []struct {
		name       string
		job        types.TranscriptionJob
		wantStatus JobStatus
		wantURI    string
		wantReason string
	}{
		{
			name:       "queued",
			job:        types.TranscriptionJob{TranscriptionJobStatus: types.TranscriptionJobStatusQueued},
			wantStatus: JobPending,
		},
		{
			name:       "in_progress",
			job:        types.TranscriptionJob{TranscriptionJobStatus: types.TranscriptionJobStatusInProgress},
			wantStatus: JobRunning,
		},
		{
			name: "completed",
			job: types.TranscriptionJob{
				TranscriptionJobStatus: types.TranscriptionJobStatusCompleted,
				Transcript:             &types.Transcript{TranscriptFileUri: aws.String("https://s3.example/result.json")},
			},
			wantStatus: JobCompleted,
			wantURI:    "https://s3.example/result.json",
		},
		{
			name: "failed",
			job: types.TranscriptionJob{
				TranscriptionJobStatus: types.TranscriptionJobStatusFailed,
				FailureReason:          aws.String("Unsupported media"),
			},
			wantStatus: JobFailed,
			wantReason: "Unsupported media",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := tt.job
			c := NewAWSJobClientWithAPI(&fakeTranscribeAPI{job: &job})
			got, err := c.JobStatus(context.Background(), "transcripcion-abc")
			if err != nil {
				t.Fatalf("JobStatus: %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if got.ResultURI != tt.wantURI {
				t.Errorf("result uri = %q, want %q", got.ResultURI, tt.wantURI)
			}
			if got.FailureReason != tt.wantReason {
				t.Errorf("failure reason = %q, want %q", got.FailureReason, tt.wantReason)
			}
			if got.ID != "transcripcion-abc" {
				t.Errorf("id = %q", got.ID)
			}
		})
	}
}

func TestAWSJobClient_Errors(t *testing.T) {
	c := NewAWSJobClientWithAPI(&fakeTranscribeAPI{err: errors.New("AccessDenied")})
	if _, err := c.StartJob(context.Background(), "n", "s3://b/k", "es-ES", "wav"); err == nil {
		t.Error("StartJob: expected error")
	}
	if _, err := c.JobStatus(context.Background(), "n"); err == nil {
		t.Error("JobStatus: expected error")
	}

	empty := NewAWSJobClientWithAPI(&fakeTranscribeAPI{})
	if _, err := empty.JobStatus(context.Background(), "n"); err == nil {
		t.Error("JobStatus: expected error on empty response")
	}
}
