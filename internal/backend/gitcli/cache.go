// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gitcli

import (
	"context"
	"regexp"
	"strings"

	"github.com/tfctl/revctl/internal/aws"
	"github.com/tfctl/revctl/internal/cacheutil"
	"github.com/tfctl/revctl/internal/config"
)

// Output for full object ids is content addressed, so entries are shared
// across clones and forks and need no per-repository subdirectory.
var cacheSubdirs = []string{"git"}

var fullID = regexp.MustCompile(`^[0-9a-f]{40}$`)

func isFullID(rev string) bool {
	return fullID.MatchString(rev)
}

// isImmutableRange reports whether rangeSpec is "<id>..<id>" with both ends
// full object ids. A single revision compares against the working tree and
// is never immutable.
func isImmutableRange(rangeSpec string) bool {
	a, b, ok := strings.Cut(rangeSpec, "..")
	return ok && isFullID(a) && isFullID(b) && !strings.HasPrefix(b, ".")
}

// cacheKey is the clear-text key for a git invocation.
func cacheKey(args []string) string {
	return strings.Join(args, "\x00")
}

// CacheReader reads the disk tier.
func CacheReader(key string) (*cacheutil.Entry, bool) {
	return cacheutil.Read(cacheSubdirs, key)
}

// CacheWriter writes the disk tier.
func CacheWriter(key string, data []byte) error {
	return cacheutil.Write(cacheSubdirs, key, data)
}

// PurgeCache drops disk entries older than cache.clean hours.
func PurgeCache() error {
	cleanHours, _ := config.GetInt("cache.clean")
	return cacheutil.Purge(cleanHours)
}

func newRemoteCache(ctx context.Context, bucket string) (*cacheutil.Remote, error) {
	prefix, _ := config.GetString("cache.s3.prefix", "revctl")
	profile, _ := config.GetString("cache.s3.profile", "")
	region, _ := config.GetString("cache.s3.region", "")
	return cacheutil.NewRemote(ctx, bucket, prefix, aws.WithProfile(profile), aws.WithRegion(region))
}
