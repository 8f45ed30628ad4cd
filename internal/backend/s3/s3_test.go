// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/dotcache/internal/pathutil"
)

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	objects map[string][]byte
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[awsv2.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3v2.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[awsv2.ToString(in.Key)] = data
	return &s3v2.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3v2.HeadObjectInput, _ ...func(*s3v2.Options)) (*s3v2.HeadObjectOutput, error) {
	if _, ok := f.objects[awsv2.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3v2.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3v2.DeleteObjectInput, _ ...func(*s3v2.Options)) (*s3v2.DeleteObjectOutput, error) {
	delete(f.objects, awsv2.ToString(in.Key))
	return &s3v2.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3v2.ListObjectsV2Input, _ ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, awsv2.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3v2.ListObjectsV2Output{IsTruncated: awsv2.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: awsv2.String(k)})
	}
	return out, nil
}

func newTestBackend(t *testing.T, fake *fakeS3) *BackendS3 {
	t.Helper()
	be, err := NewBackendS3(context.Background(), "main",
		WithBucket("bucket"),
		WithPrefix("/caches/"),
		WithClient(fake),
	)
	require.NoError(t, err)
	require.NoError(t, be.Connect(context.Background()))
	return be
}

func TestBackendS3_Layout(t *testing.T) {
	be := newTestBackend(t, newFakeS3())
	assert.Equal(t, "caches/main.json", be.DocumentKey())

	k, err := be.ObjectKey("cust-1")
	require.NoError(t, err)
	assert.Equal(t, "caches/main.d/cust-1.json", k)

	_, err = be.ObjectKey("a/b")
	assert.ErrorIs(t, err, pathutil.ErrKeySeparator)
}

func TestBackendS3_Connect(t *testing.T) {
	be, err := NewBackendS3(context.Background(), "main")
	require.NoError(t, err)
	assert.ErrorIs(t, be.Connect(context.Background()), ErrNoBucket)

	_, err = be.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestBackendS3_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	be := newTestBackend(t, fake)

	doc, err := be.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)

	require.NoError(t, be.Save(ctx, map[string]any{"a": 1.0, "cust-1": "stale"}))
	require.NoError(t, be.CreateObject(ctx, "cust-1", map[string]any{"balance": 100}))
	require.NoError(t, be.CreateObject(ctx, "cust-2", []any{"x"}))
	fake.objects["caches/main.d/nested/skip.json"] = []byte("{}")

	doc, err = be.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, doc)

	keys, err := be.ListObjectKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cust-1", "cust-2"}, keys)

	v, ok, err := be.RetrieveObject(ctx, "cust-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"balance": 100.0}, v)

	existed, err := be.DeleteObject(ctx, "cust-1")
	require.NoError(t, err)
	assert.True(t, existed)
	existed, err = be.DeleteObject(ctx, "cust-1")
	require.NoError(t, err)
	assert.False(t, existed)

	_, ok, err = be.RetrieveObject(ctx, "cust-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackendS3_CorruptAndErrors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	be := newTestBackend(t, fake)

	fake.objects["caches/main.d/bad.json"] = []byte("{")
	_, ok, err := be.RetrieveObject(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)

	boom := errors.New("access denied")
	fake.getErr = boom
	_, err = be.Fetch(ctx)
	assert.ErrorIs(t, err, boom)
}
