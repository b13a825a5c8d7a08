// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOptions verifies option functions populate the options struct and that
// later options override earlier ones.
func TestOptions(t *testing.T) {
	var opts options
	WithProfile("team")(&opts)
	WithRegion("us-east-1")(&opts)
	WithRegion("eu-west-1")(&opts)
	WithRetryer(func() awsv2.Retryer { return retry.NewStandard() })(&opts)

	assert.Equal(t, "team", opts.profile)
	assert.Equal(t, "eu-west-1", opts.region)
	require.NotNil(t, opts.retryer)
	assert.NotNil(t, opts.retryer())
}

// TestLoadAWSConfig_WithRegion verifies the region override reaches the
// loaded config. No network is required.
func TestLoadAWSConfig_WithRegion(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")

	cfg, err := LoadAWSConfig(context.Background(), WithRegion("us-west-2"))
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", cfg.Region)
	assert.IsType(t, &s3v2.Client{}, NewS3(cfg))
}

// fakeObjects is an in-memory ObjectAPI.
type fakeObjects struct {
	objects map[string][]byte
	err     error
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3v2.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3v2.PutObjectOutput{}, nil
}

func TestBucket(t *testing.T) {
	ctx := context.Background()
	api := &fakeObjects{objects: map[string][]byte{}}
	b := Bucket{API: api, Name: "cache"}

	_, err := b.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoSuchKey)

	require.NoError(t, b.Put(ctx, "k", []byte("3\t2\tfoo.txt\n")))
	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "3\t2\tfoo.txt\n", string(got))

	api.err = errors.New("access denied")
	_, err = b.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSuchKey)
	assert.Error(t, b.Put(ctx, "k", nil))
}
