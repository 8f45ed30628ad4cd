// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package s3 persists a cache as JSON objects in an S3 bucket. The aggregate
// document is <prefix>/<name>.json and objects live under <prefix>/<name>.d/.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	awsx "github.com/staranto/dotcache/internal/aws"
	"github.com/staranto/dotcache/internal/pathutil"
)

const extension = ".json"

var (
	// ErrNoBucket is returned by Connect when no bucket was configured.
	ErrNoBucket = errors.New("s3 backend requires a bucket")
	// ErrNotConnected is returned by operations issued before Connect.
	ErrNotConnected = errors.New("s3 backend is not connected")
)

// API is the subset of the S3 client the backend uses.
type API interface {
	GetObject(ctx context.Context, in *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3v2.HeadObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3v2.DeleteObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3v2.ListObjectsV2Input, optFns ...func(*s3v2.Options)) (*s3v2.ListObjectsV2Output, error)
}

type BackendS3 struct {
	Name   string
	Bucket string
	Prefix string

	region   string
	profile  string
	endpoint string
	client   API
}

type Option func(*BackendS3)

func WithBucket(bucket string) Option {
	return func(be *BackendS3) { be.Bucket = bucket }
}

func WithPrefix(prefix string) Option {
	return func(be *BackendS3) { be.Prefix = strings.Trim(prefix, "/") }
}

func WithRegion(region string) Option {
	return func(be *BackendS3) { be.region = region }
}

func WithProfile(profile string) Option {
	return func(be *BackendS3) { be.profile = profile }
}

// WithEndpoint targets an S3-compatible service instead of AWS.
func WithEndpoint(endpoint string) Option {
	return func(be *BackendS3) { be.endpoint = endpoint }
}

// WithClient injects a ready client. Region, profile and endpoint are then
// ignored.
func WithClient(client API) Option {
	return func(be *BackendS3) { be.client = client }
}

func NewBackendS3(_ context.Context, name string, opts ...Option) (*BackendS3, error) {
	if err := pathutil.ValidateKey(name); err != nil {
		return nil, fmt.Errorf("invalid cache name %q: %w", name, err)
	}

	be := &BackendS3{Name: name}
	for _, opt := range opts {
		opt(be)
	}
	return be, nil
}

// DocumentKey is the S3 key of the aggregate document.
func (be *BackendS3) DocumentKey() string {
	return path.Join(be.Prefix, be.Name+extension)
}

func (be *BackendS3) objectPrefix() string {
	return path.Join(be.Prefix, be.Name+".d") + "/"
}

// ObjectKey is the S3 key holding key's document.
func (be *BackendS3) ObjectKey(key string) (string, error) {
	if err := pathutil.ValidateKey(key); err != nil {
		return "", err
	}
	return be.objectPrefix() + key + extension, nil
}

func (be *BackendS3) Connect(ctx context.Context) error {
	if be.Bucket == "" {
		return ErrNoBucket
	}
	if be.client != nil {
		return nil
	}

	client, err := awsx.NewS3Client(ctx,
		awsx.WithRegion(be.region),
		awsx.WithProfile(be.profile),
		awsx.WithEndpoint(be.endpoint),
	)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	be.client = client
	return nil
}

func (be *BackendS3) Fetch(ctx context.Context) (map[string]any, error) {
	v, ok, err := be.get(ctx, be.DocumentKey())
	if err != nil || !ok {
		return map[string]any{}, err
	}
	doc, isMap := v.(map[string]any)
	if !isMap {
		log.WithField("cache", be.Name).Warnf("ignoring s3://%s/%s: not a JSON object", be.Bucket, be.DocumentKey())
		return map[string]any{}, nil
	}
	return doc, nil
}

func (be *BackendS3) Save(ctx context.Context, doc map[string]any) error {
	if doc == nil {
		doc = map[string]any{}
	}
	return be.put(ctx, be.DocumentKey(), doc)
}

func (be *BackendS3) ListObjectKeys(ctx context.Context) ([]string, error) {
	if be.client == nil {
		return nil, ErrNotConnected
	}

	prefix := be.objectPrefix()
	p := s3v2.NewListObjectsV2Paginator(be.client, &s3v2.ListObjectsV2Input{
		Bucket: awsv2.String(be.Bucket),
		Prefix: awsv2.String(prefix),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", be.Bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(awsv2.ToString(obj.Key), prefix)
			if strings.Contains(name, "/") || !strings.HasSuffix(name, extension) {
				continue
			}
			if key := strings.TrimSuffix(name, extension); key != "" {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

func (be *BackendS3) CreateObject(ctx context.Context, key string, value any) error {
	k, err := be.ObjectKey(key)
	if err != nil {
		return err
	}
	if err := be.put(ctx, k, value); err != nil {
		return err
	}

	doc, err := be.Fetch(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc[key]; ok {
		delete(doc, key)
		return be.Save(ctx, doc)
	}
	return nil
}

func (be *BackendS3) RetrieveObject(ctx context.Context, key string) (any, bool, error) {
	k, err := be.ObjectKey(key)
	if err != nil {
		return nil, false, err
	}
	return be.get(ctx, k)
}

func (be *BackendS3) DeleteObject(ctx context.Context, key string) (bool, error) {
	k, err := be.ObjectKey(key)
	if err != nil {
		return false, err
	}
	if be.client == nil {
		return false, ErrNotConnected
	}

	_, err = be.client.HeadObject(ctx, &s3v2.HeadObjectInput{
		Bucket: awsv2.String(be.Bucket),
		Key:    awsv2.String(k),
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat s3://%s/%s: %w", be.Bucket, k, err)
	}

	_, err = be.client.DeleteObject(ctx, &s3v2.DeleteObjectInput{
		Bucket: awsv2.String(be.Bucket),
		Key:    awsv2.String(k),
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete s3://%s/%s: %w", be.Bucket, k, err)
	}
	return true, nil
}

func (be *BackendS3) Close() error { return nil }

func (be *BackendS3) String() string {
	return fmt.Sprintf("backend-s3:s3://%s/%s", be.Bucket, be.Prefix)
}

func (be *BackendS3) get(ctx context.Context, key string) (any, bool, error) {
	if be.client == nil {
		return nil, false, ErrNotConnected
	}

	out, err := be.client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(be.Bucket),
		Key:    awsv2.String(key),
	})
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get s3://%s/%s: %w", be.Bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read s3://%s/%s: %w", be.Bucket, key, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		log.WithField("cache", be.Name).WithError(err).Warnf("ignoring corrupt document s3://%s/%s", be.Bucket, key)
		return nil, false, nil
	}
	return v, true, nil
}

func (be *BackendS3) put(ctx context.Context, key string, v any) error {
	if be.client == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode s3://%s/%s: %w", be.Bucket, key, err)
	}

	_, err = be.client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:      awsv2.String(be.Bucket),
		Key:         awsv2.String(key),
		Body:        bytes.NewReader(data),
		ContentType: awsv2.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", be.Bucket, key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
