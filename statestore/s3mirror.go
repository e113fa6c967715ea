package statestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kuitang/pwhelpers/internal/s3client"
)

const stateContentType = "application/json"

// ErrNoMirroredState is returned by Fetch when nothing has been uploaded yet.
var ErrNoMirroredState = errors.New("statestore: no mirrored state")

// S3Mirror uploads login state to a single object key.
type S3Mirror struct {
	client *s3client.Client
	key    string
}

var _ Mirror = (*S3Mirror)(nil)

// NewS3Mirror returns a mirror writing to key in client's bucket.
func NewS3Mirror(client *s3client.Client, key string) *S3Mirror {
	return &S3Mirror{client: client, key: key}
}

// Upload implements Mirror.
func (m *S3Mirror) Upload(ctx context.Context, state []byte) error {
	if err := m.client.Put(ctx, m.key, state, stateContentType); err != nil {
		return fmt.Errorf("mirror login state: %w", err)
	}
	return nil
}

// Fetch downloads the mirrored state.
func (m *S3Mirror) Fetch(ctx context.Context) ([]byte, error) {
	data, err := m.client.Get(ctx, m.key)
	if errors.Is(err, s3client.ErrObjectNotFound) {
		return nil, ErrNoMirroredState
	}
	if err != nil {
		return nil, fmt.Errorf("fetch mirrored login state: %w", err)
	}
	return data, nil
}

// Restore downloads the mirrored state and writes it to path, so a runner can reuse a
// login performed elsewhere.
func (m *S3Mirror) Restore(ctx context.Context, path string) error {
	data, err := m.Fetch(ctx)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// Location implements Mirror.
func (m *S3Mirror) Location() string {
	return "s3://" + m.client.Bucket() + "/" + m.key
}
