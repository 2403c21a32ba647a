package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/belzunces/monsieurchef/config"
)

// DetectImageMIME sniffs the MIME type of an uploaded photo. Anything that
// is not an image is rejected with ErrUnsupportedImage.
func DetectImageMIME(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrUnsupportedImage
	}
	return mt.String(), nil
}

// DecodeImagePayload decodes a base64 image as sent by browsers: either a
// data URL ("data:image/png;base64,....") or raw base64. The data URL prefix
// is stripped before decoding.
func DecodeImagePayload(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", nil
	}
	if strings.HasPrefix(payload, "data:") {
		_, rest, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", ErrUnsupportedImage
		}
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", ErrUnsupportedImage
		}
	}

	mimeType, err := DetectImageMIME(data)
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}

// S3PhotoArchive keeps the photos recipes were converted from in S3.
type S3PhotoArchive struct {
	s3     *config.S3Config
	prefix string
}

// NewS3PhotoArchive creates an archive writing under "<prefix>/<userID>/".
func NewS3PhotoArchive(s3Config *config.S3Config, prefix string) *S3PhotoArchive {
	if prefix == "" {
		prefix = "recipe-photos"
	}
	return &S3PhotoArchive{s3: s3Config, prefix: prefix}
}

// Upload stores the photo and returns its public URL.
func (a *S3PhotoArchive) Upload(ctx context.Context, userID string, data []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	ext := ".jpg"
	if mt := mimetype.Lookup(mimeType); mt != nil && mt.Extension() != "" {
		ext = mt.Extension()
	}
	key := fmt.Sprintf("%s/%s/%s%s", a.prefix, userID, uuid.New().String(), ext)

	_, err := a.s3.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.s3.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("photo archive: uploading %s: %w", key, err)
	}

	url := a.s3.PublicURL(key)
	slog.InfoContext(ctx, "photo archive: stored recipe photo", "key", key)
	return url, nil
}
