// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package gitcli

import (
	"context"

	"github.com/tfctl/revctl/internal/log"
)

// hit runs git through the cache. Mutable queries go straight to git.
// Immutable ones are looked up on disk, then in the shared tier, and only
// then run, with the output written back to both tiers.
func (be *BackendGitCLI) hit(ctx context.Context, immutable bool, args ...string) (string, error) {
	if !immutable || !be.cache {
		return be.git(ctx, args...)
	}

	if err := PurgeCache(); err != nil {
		log.WithError(err).Warn("failed to purge cache")
	}

	key := cacheKey(args)

	if entry, ok := CacheReader(key); ok {
		log.Debugf("cache hit: %s", entry.Path)
		return string(entry.Data), nil
	}

	if data, ok := be.remote.Read(ctx, cacheSubdirs, key); ok {
		if err := CacheWriter(key, data); err != nil {
			log.WithError(err).Warn("failed to write cache")
		}
		return string(data), nil
	}

	out, err := be.git(ctx, args...)
	if err != nil {
		return "", err
	}

	if err := CacheWriter(key, []byte(out)); err != nil {
		log.WithError(err).Warn("failed to write cache")
	}
	if err := be.remote.Write(ctx, cacheSubdirs, key, []byte(out)); err != nil {
		log.WithError(err).Warn("failed to write remote cache")
	}

	return out, nil
}
