package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// The ML worker picks audio straight from the bucket root by record id.
var workerKeyPattern = regexp.MustCompile(`^\d+\.m4a$`)

// S3Service stores audio blobs in an S3-compatible bucket (MinIO in
// every deployment so far). Stored locators are full URLs, which also
// serve as the HTTP download fallback.
type S3Service struct {
	client   *minio.Client
	endpoint string
	bucket   string
	http     *http.Client
}

func NewS3Service(endpoint, region, accessKey, secretKey, bucket string) (*S3Service, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid s3 endpoint %q: %w", endpoint, err)
	}

	client, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: u.Scheme == "https",
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Service{
		client:   client,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		bucket:   bucket,
		http:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// UploadFile puts the audio bytes into the bucket and returns the blob's
// URL. Worker-shaped filenames ({recordId}.m4a) keep their name at the
// bucket root; everything else gets a generated key under audio/.
func (s *S3Service) UploadFile(ctx context.Context, r io.Reader, size int64, fileName, contentType string) (string, error) {
	key := fileName
	if !workerKeyPattern.MatchString(fileName) {
		key = fmt.Sprintf("audio/%s-%s", uuid.New(), fileName)
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		log.Printf("Failed to upload file %s: %v", fileName, err)
		return "", err
	}

	log.Println("File uploaded successfully:", key)
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key), nil
}

// DownloadFile fetches a blob by its stored URL, falling back to a plain
// HTTP GET when the S3 path fails.
func (s *S3Service) DownloadFile(ctx context.Context, blobURL string) ([]byte, error) {
	key := s.keyFromURL(blobURL)

	if key != "" {
		obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
		if err == nil {
			data, readErr := io.ReadAll(obj)
			obj.Close()
			if readErr == nil {
				return data, nil
			}
			err = readErr
		}
		log.Printf("Failed to download key=%s from S3, falling back to HTTP: %v", key, err)
	}

	return s.downloadViaHTTP(ctx, blobURL)
}

// DeleteFileByURL removes a blob, best effort. Blob deletion never
// participates in database transactions, so failures are only logged.
func (s *S3Service) DeleteFileByURL(ctx context.Context, blobURL string) {
	key := s.keyFromURL(blobURL)
	if key == "" {
		log.Println("Cannot delete S3 object for empty key parsed from url:", blobURL)
		return
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		log.Printf("Failed to delete file from %s: %v", blobURL, err)
		return
	}
	log.Println("Deleted S3 object:", key)
}

func (s *S3Service) keyFromURL(blobURL string) string {
	marker := s.bucket + "/"
	idx := strings.Index(blobURL, marker)
	if idx < 0 {
		return ""
	}
	return blobURL[idx+len(marker):]
}

func (s *S3Service) downloadViaHTTP(ctx context.Context, blobURL string) ([]byte, error) {
	log.Println("Downloading file via HTTP fallback:", blobURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, blobURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		log.Printf("HTTP fallback download failed for %s: %v", blobURL, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP fallback download failed for %s: %s", blobURL, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
