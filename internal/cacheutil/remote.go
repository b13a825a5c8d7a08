// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"errors"
	"path"

	"github.com/tfctl/revctl/internal/aws"
	"github.com/tfctl/revctl/internal/log"
)

// Remote is a shared cache tier in an S3 bucket. Object keys mirror the disk
// layout: prefix/subdirs.../sha256(key).
type Remote struct {
	Bucket aws.Bucket
	Prefix string
}

// NewRemote builds a Remote on an S3 client loaded from the ambient AWS
// configuration.
func NewRemote(ctx context.Context, bucket, prefix string, opts ...aws.Option) (*Remote, error) {
	cfg, err := aws.LoadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Remote{
		Bucket: aws.Bucket{API: aws.NewS3(cfg), Name: bucket},
		Prefix: prefix,
	}, nil
}

// ObjectKey returns the object key for a cache entry.
func (r *Remote) ObjectKey(subdirs []string, clearKey string) string {
	parts := append([]string{r.Prefix}, subdirs...)
	return path.Join(append(parts, EncodeKey(clearKey))...)
}

// Read fetches an entry. Any failure, including a missing object, is a miss.
func (r *Remote) Read(ctx context.Context, subdirs []string, clearKey string) ([]byte, bool) {
	if r == nil || !Enabled() {
		return nil, false
	}
	data, err := r.Bucket.Get(ctx, r.ObjectKey(subdirs, clearKey))
	if err != nil {
		if !errors.Is(err, aws.ErrNoSuchKey) {
			log.WithError(err).Warn("remote cache read failed")
		}
		return nil, false
	}
	log.Debugf("remote cache hit: key=%s", clearKey)
	return data, true
}

// Write stores an entry.
func (r *Remote) Write(ctx context.Context, subdirs []string, clearKey string, data []byte) error {
	if r == nil || !Enabled() {
		return nil
	}
	return r.Bucket.Put(ctx, r.ObjectKey(subdirs, clearKey), data)
}
