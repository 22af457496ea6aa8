package assetstore

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"

	"github.com/google/uuid"
	"github.com/guonaihong/gout"

	"hardware-catalog/internal/domain"
)

type httpStore struct {
	cfg    Config
	logger *log.Logger
}

// NewHTTP returns a Store speaking the object storage HTTP API:
// POST {endpoint}/image/upload (multipart) and POST {endpoint}/image/destroy.
func NewHTTP(cfg Config, logger *log.Logger) Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &httpStore{cfg: cfg, logger: logger}
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

type destroyResponse struct {
	Result string `json:"result"`
}

func (s *httpStore) Upload(ctx context.Context, data []byte) (string, error) {
	publicID := path.Join(s.cfg.Folder, uuid.NewString())

	var (
		resp uploadResponse
		code int
	)
	err := gout.New().
		POST(s.cfg.Endpoint + "/image/upload").
		WithContext(ctx).
		SetForm(gout.H{
			"file":       gout.FormMem(data),
			"public_id":  publicID,
			"api_key":    s.cfg.APIKey,
			"api_secret": s.cfg.APISecret,
		}).
		BindJSON(&resp).
		Code(&code).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	if code != http.StatusOK {
		return "", fmt.Errorf("%w: upload status %d", domain.ErrUploadFailed, code)
	}

	ref := resp.PublicID
	if ref == "" {
		ref = publicID
	}
	s.logger.Printf("asset store: uploaded ref=%s bytes=%d", ref, len(data))
	return ref, nil
}

func (s *httpStore) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}

	var (
		resp destroyResponse
		code int
	)
	err := gout.New().
		POST(s.cfg.Endpoint + "/image/destroy").
		WithContext(ctx).
		SetWWWForm(gout.H{
			"public_id":  ref,
			"api_key":    s.cfg.APIKey,
			"api_secret": s.cfg.APISecret,
		}).
		BindJSON(&resp).
		Code(&code).
		Do()
	if err != nil {
		return fmt.Errorf("destroy %s: %w", ref, err)
	}
	if code != http.StatusOK {
		return fmt.Errorf("destroy %s: status %d", ref, code)
	}

	// "not found" counts as success: the object is gone either way, and the
	// caller may be retrying after a partial failure.
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("destroy %s: unexpected result %q", ref, resp.Result)
	}
	s.logger.Printf("asset store: deleted ref=%s result=%s", ref, resp.Result)
	return nil
}
