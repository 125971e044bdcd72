package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"ruralmatch/internal/model"
	"ruralmatch/internal/resilience"

	"github.com/rotisserie/eris"
)

// HTTPStore uploads images to a bucket of an object storage REST API:
// objects are PUT to {base}/storage/v1/object/{bucket}/{key} and served from
// {base}/storage/v1/object/public/{bucket}/{key}.
type HTTPStore struct {
	httpClient *http.Client
	baseURL    string
	bucket     string
	token      string
	retry      resilience.RetryConfig
}

// HTTPStoreConfig configures an HTTPStore.
type HTTPStoreConfig struct {
	BaseURL string
	Bucket  string
	Token   string
	Timeout time.Duration
	Retry   resilience.RetryConfig
}

// NewHTTPStore creates an object storage client.
func NewHTTPStore(cfg HTTPStoreConfig) *HTTPStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retry := cfg.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("storage", "upload_image")
	}
	return &HTTPStore{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		bucket:     cfg.Bucket,
		token:      cfg.Token,
		retry:      retry,
	}
}

// UploadImage stores file and returns its public URL.
func (s *HTTPStore) UploadImage(ctx context.Context, listingID int64, file model.ImageFile) (string, error) {
	key := objectKey(listingID, file.Name, file.ContentType)

	err := resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.put(ctx, key, file)
	})
	if err != nil {
		return "", eris.Wrapf(err, "storage: upload %s", file.Name)
	}
	return s.baseURL + "/storage/v1/object/public/" + s.bucket + "/" + key, nil
}

func (s *HTTPStore) put(ctx context.Context, key string, file model.ImageFile) error {
	u := s.baseURL + "/storage/v1/object/" + s.bucket + "/" + key
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(file.Data))
	if err != nil {
		return eris.Wrap(err, "storage: build request")
	}
	req.Header.Set("Content-Type", file.ContentType)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := eris.Errorf("storage: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return statusErr
	}
	return nil
}
