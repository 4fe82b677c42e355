package utils

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestR2UploaderUpload(t *testing.T) {
	fake := &fakePutter{}
	u := NewR2UploaderWithClient(fake, "hunt-reports", "https://cdn.example.com/")

	url, err := u.Upload(context.Background(), "reports/claims.csv", "text/csv", []byte("a,b\n"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "https://cdn.example.com/reports/claims.csv" {
		t.Fatalf("url = %q", url)
	}
	if aws.ToString(fake.input.Bucket) != "hunt-reports" || aws.ToString(fake.input.Key) != "reports/claims.csv" {
		t.Fatalf("input = %+v", fake.input)
	}
	if string(fake.body) != "a,b\n" {
		t.Fatalf("body = %q", fake.body)
	}
}

func TestR2UploaderUploadError(t *testing.T) {
	u := NewR2UploaderWithClient(&fakePutter{err: errors.New("denied")}, "b", "https://cdn")
	if _, err := u.Upload(context.Background(), "k", "text/csv", nil); err == nil {
		t.Fatal("expected error")
	}
}
