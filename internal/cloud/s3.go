// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides configuration and clients for the pipeline's
// external services. This file implements the two object-store roles of the
// pipeline over any S3-compatible endpoint:
//
//   - IngestStore: the intake bucket whose pending/, processing/, completed/
//     and failed/ prefixes act as the lifecycle states of each source video.
//     The pending -> processing move doubles as the mutual-exclusion
//     primitive should parallel workers ever share the bucket.
//   - ContentStore: the CDN-fronted output bucket receiving the processed
//     MP4/HLS tree, with per-extension content types and public-read ACLs.
//
// Lifecycle moves are copy-then-delete and deliberately non-fatal: a video
// that cannot be moved is still worth processing, and a finished video that
// cannot be re-filed only costs a log line, never the pipeline result.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/h2non/filetype"
)

// ErrStorageFailure marks fatal object-store failures (list, download,
// upload). Lifecycle move failures are logged instead of raised.
var ErrStorageFailure = errors.New("storage failure")

// VideoExtensions is the set of source extensions the intake listing keeps.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

// contentTypes maps the upload-tree extensions that must be exact for HLS
// playback; anything else falls back to sniffing.
var contentTypes = map[string]string{
	".m3u8": "application/vnd.apple.mpegurl",
	".ts":   "video/mp2t",
	".m4s":  "video/iso.segment",
	".mp4":  "video/mp4",
	".json": "application/json",
}

// PendingObject is one intake-listing entry.
type PendingObject struct {
	Key          string    // Full object key, including the pending/ prefix.
	Size         int64     // Object size in bytes; zero-byte entries are filtered out.
	LastModified time.Time
	Name         string // Base filename without any prefix.
}

// newS3Client builds an S3 client for one bucket role: static credentials,
// optional custom endpoint, and path-style addressing, which S3-compatible
// stores require.
func newS3Client(ctx context.Context, endpoint, region, accessKeyID, secretAccessKey string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrStorageFailure, err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return client, nil
}

// IngestStore manages the intake bucket's lifecycle prefixes.
type IngestStore struct {
	client *s3.Client
	cfg    S3InputConfig
}

// NewIngestStore creates the intake-bucket client from configuration.
func NewIngestStore(ctx context.Context, cfg S3InputConfig) (*IngestStore, error) {
	client, err := newS3Client(ctx, cfg.Endpoint, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, err
	}
	return &IngestStore{client: client, cfg: cfg}, nil
}

// ListPending lists the objects under the pending/ prefix, keeping only
// non-empty files with a recognized video extension.
func (s *IngestStore) ListPending(ctx context.Context) ([]PendingObject, error) {
	out := make([]PendingObject, 0)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(s.cfg.PendingPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: list pending: %v", ErrStorageFailure, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := path.Base(key)
			ext := strings.ToLower(path.Ext(name))
			if !VideoExtensions[ext] {
				continue
			}
			size := aws.ToInt64(obj.Size)
			if size == 0 {
				slog.Warn("skipping zero-byte pending object", "key", key)
				continue
			}
			out = append(out, PendingObject{
				Key:          key,
				Size:         size,
				LastModified: aws.ToTime(obj.LastModified),
				Name:         name,
			})
		}
	}
	return out, nil
}

// move copies the object under the destination prefix and deletes the
// source key.
func (s *IngestStore) move(ctx context.Context, key, destPrefix string) (string, error) {
	newKey := destPrefix + path.Base(key)
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.cfg.Bucket),
		Key:        aws.String(newKey),
		CopySource: aws.String(url.PathEscape(s.cfg.Bucket + "/" + key)),
	})
	if err != nil {
		return "", err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", err
	}
	return newKey, nil
}

// MoveToProcessing moves the key under the processing/ prefix. A move
// failure is non-fatal: the original key is returned so the video is
// processed from where it sits.
func (s *IngestStore) MoveToProcessing(ctx context.Context, key string) string {
	newKey, err := s.move(ctx, key, s.cfg.ProcessingPrefix)
	if err != nil {
		slog.Warn("failed to move object to processing; continuing with original key", "key", key, "error", err)
		return key
	}
	return newKey
}

// MoveToCompleted re-files the key under completed/. Failures are logged,
// never raised.
func (s *IngestStore) MoveToCompleted(ctx context.Context, key string) {
	if _, err := s.move(ctx, key, s.cfg.CompletedPrefix); err != nil {
		slog.Warn("failed to move object to completed", "key", key, "error", err)
	}
}

// MoveToFailed re-files the key under failed/. Failures are logged, never
// raised.
func (s *IngestStore) MoveToFailed(ctx context.Context, key string) {
	if _, err := s.move(ctx, key, s.cfg.FailedPrefix); err != nil {
		slog.Warn("failed to move object to failed", "key", key, "error", err)
	}
}

// Download streams the object body into localDir and returns the local path.
func (s *IngestStore) Download(ctx context.Context, key, localDir string) (string, error) {
	localPath := filepath.Join(localDir, path.Base(key))
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", ErrStorageFailure, localPath, err)
	}
	defer f.Close()

	downloader := manager.NewDownloader(s.client)
	n, err := downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("%w: download %s: %v", ErrStorageFailure, key, err)
	}
	slog.Info("downloaded source video", "key", key, "bytes", n, "path", localPath)
	return localPath, nil
}

// ContentStore manages the CDN-fronted output bucket.
type ContentStore struct {
	client *s3.Client
	cfg    StorageConfig
}

// NewContentStore creates the output-bucket client from configuration.
func NewContentStore(ctx context.Context, cfg StorageConfig) (*ContentStore, error) {
	client, err := newS3Client(ctx, cfg.Endpoint, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, err
	}
	return &ContentStore{client: client, cfg: cfg}, nil
}

// CDNURL converts an object key into its public CDN URL, normalizing any
// backslashes a Windows-built path may have left in the key.
func (s *ContentStore) CDNURL(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "/")
	return fmt.Sprintf("https://%s/%s", s.cfg.CdnDomain, key)
}

// ContentTypeFor resolves the upload content type for a local file: the
// fixed HLS/MP4 map first, then MIME by extension, then a filetype sniff of
// the file header, then application/octet-stream.
func ContentTypeFor(localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	if f, err := os.Open(localPath); err == nil {
		defer f.Close()
		head := make([]byte, 261)
		n, _ := io.ReadFull(f, head)
		if kind, err := filetype.Match(head[:n]); err == nil && kind != filetype.Unknown {
			return kind.MIME.Value
		}
	}
	return "application/octet-stream"
}

// UploadFile uploads one local file as prefix/targetName with a public-read
// ACL and returns its CDN URL.
func (s *ContentStore) UploadFile(ctx context.Context, localPath, prefix, targetName string) (string, error) {
	key := path.Join(prefix, targetName)
	if err := s.putFile(ctx, localPath, key); err != nil {
		return "", err
	}
	return s.CDNURL(key), nil
}

// UploadTree recursively uploads every regular file under localDir to
// prefix/baseName/<relative path> and returns the CDN URL of the entry file
// (prefix/baseName/entryFile).
func (s *ContentStore) UploadTree(ctx context.Context, localDir, prefix, baseName, entryFile string) (string, error) {
	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		key := path.Join(prefix, baseName, filepath.ToSlash(rel))
		return s.putFile(ctx, p, key)
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload tree %s: %v", ErrStorageFailure, localDir, err)
	}
	return s.CDNURL(path.Join(prefix, baseName, entryFile)), nil
}

func (s *ContentStore) putFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrStorageFailure, localPath, err)
	}
	defer f.Close()

	uploader := manager.NewUploader(s.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(ContentTypeFor(localPath)),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("%w: upload %s: %v", ErrStorageFailure, key, err)
	}
	return nil
}
