// SPDX-License-Identifier: EPL-2.0

// Package storage publishes finished artifacts (segment files or alignment
// results) to remote object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
)

var ErrNoBucket = errors.New("storage: bucket is required")

// Publisher uploads a local file under key and returns where it can be
// fetched from.
type Publisher interface {
	Publish(ctx context.Context, localPath, key string) (string, error)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, localPath, key string) (string, error)

func (f PublisherFunc) Publish(ctx context.Context, localPath, key string) (string, error) {
	return f(ctx, localPath, key)
}

// Key joins prefix, runID and the base name of localPath into an object
// key using forward slashes.
func Key(prefix, runID, localPath string) string {
	return path.Join(prefix, runID, filepath.Base(localPath))
}

// PublishAll uploads every file in order and stops at the first failure.
// The locations of the files uploaded so far are returned with the error.
func PublishAll(ctx context.Context, p Publisher, prefix, runID string, files []string) ([]string, error) {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		loc, err := p.Publish(ctx, f, Key(prefix, runID, f))
		if err != nil {
			return out, fmt.Errorf("publish %s: %w", f, err)
		}
		out = append(out, loc)
	}
	return out, nil
}
