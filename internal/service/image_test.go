package service_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belzunces/monsieurchef/config"
	"github.com/belzunces/monsieurchef/internal/service"
)

func TestDecodeImagePayload(t *testing.T) {
	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	std := base64.StdEncoding.EncodeToString(pngHeader)

	tests := []struct {
		name     string
		payload  string
		wantData []byte
		wantMIME string
		wantErr  error
	}{
		{name: "empty", payload: "  "},
		{name: "data url", payload: "data:image/png;base64," + std, wantData: pngHeader, wantMIME: "image/png"},
		{name: "raw base64", payload: base64.StdEncoding.EncodeToString(jpeg), wantData: jpeg, wantMIME: "image/jpeg"},
		{name: "unpadded base64", payload: base64.RawStdEncoding.EncodeToString(pngHeader), wantData: pngHeader, wantMIME: "image/png"},
		{name: "declared type is not trusted", payload: "data:image/png;base64," + base64.StdEncoding.EncodeToString(jpeg), wantData: jpeg, wantMIME: "image/jpeg"},
		{name: "data url without comma", payload: "data:image/png;base64", wantErr: service.ErrUnsupportedImage},
		{name: "not base64", payload: "***", wantErr: service.ErrUnsupportedImage},
		{name: "not an image", payload: base64.StdEncoding.EncodeToString([]byte("hola, soy texto")), wantErr: service.ErrUnsupportedImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mimeType, err := service.DecodeImagePayload(tt.payload)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantData, data)
			assert.Equal(t, tt.wantMIME, mimeType)
		})
	}
}

func TestDetectImageMIME(t *testing.T) {
	mimeType, err := service.DetectImageMIME(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)

	_, err = service.DetectImageMIME([]byte("%PDF-1.4"))
	assert.ErrorIs(t, err, service.ErrUnsupportedImage)
}

func TestS3PhotoArchiveUpload(t *testing.T) {
	type upload struct {
		method, path, contentType string
		body                      []byte
	}
	got := make(chan upload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- upload{r.Method, r.URL.Path, r.Header.Get("Content-Type"), body}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:       "eu-west-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	archive := service.NewS3PhotoArchive(&config.S3Config{Client: client, BucketName: "photos", Region: "eu-west-1"}, "")

	url, err := archive.Upload(context.Background(), "user-1", pngHeader, "image/png")
	require.NoError(t, err)

	up := <-got
	assert.Equal(t, http.MethodPut, up.method)
	assert.True(t, strings.HasPrefix(up.path, "/photos/recipe-photos/user-1/"), up.path)
	assert.True(t, strings.HasSuffix(up.path, ".png"), up.path)
	assert.Equal(t, "image/png", up.contentType)
	assert.Equal(t, pngHeader, up.body)

	assert.True(t, strings.HasPrefix(url, "https://photos.s3.eu-west-1.amazonaws.com/recipe-photos/user-1/"), url)
}
