package downstreams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"collectionsync/internal/pkg/config"
	"collectionsync/internal/pkg/consts"
	"collectionsync/internal/pkg/logger"
	"collectionsync/internal/pkg/models"
	"collectionsync/internal/pkg/ratelimit"

	"github.com/google/uuid"
)

// ProviderClient talks to the banking provider's collection API. All
// calls are paced through the shared rate limiter so a burst of batch
// work cannot trip the provider's per-credential ceiling.
type ProviderClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

func NewProviderClient(cfg config.ProviderConfig) *ProviderClient {
	return &ProviderClient{
		baseURL:  cfg.BaseURL,
		apiToken: cfg.APIToken,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			MaxRequestsPerSecond: cfg.MaxRequestsPerSecond,
			MaxRetries:           cfg.MaxRetries,
			BaseDelayMs:          cfg.BaseDelayMs,
			MaxDelayMs:           cfg.MaxDelayMs,
		}),
	}
}

func (pc *ProviderClient) doJSON(ctx context.Context, serviceKey, method, path string, payload, out interface{}, idempotent bool) error {
	// one key per logical call: retries of the same mutation must reuse
	// it so a request that landed before a timeout is not re-executed
	var idempotencyKey string
	if !idempotent {
		idempotencyKey = uuid.NewString()
	}

	return pc.limiter.Execute(ctx, serviceKey, func(ctx context.Context) error {
		var body io.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return err
			}
			body = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, pc.baseURL+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+pc.apiToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if idempotencyKey != "" {
			req.Header.Set("x-idempotency-key", idempotencyKey)
		}

		start := time.Now()
		resp, err := pc.httpClient.Do(req)
		if err != nil {
			logger.CtxError(ctx, "Provider request failed", err,
				slog.String("method", method),
				slog.String("path", path))
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		logger.CtxDebug(ctx, "Provider request completed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &models.ProviderError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decoding provider response: %w", err)
			}
		}
		return nil
	})
}

func (pc *ProviderClient) IssueCollection(ctx context.Context, req IssueCollectionRequest) (*IssueCollectionResponse, error) {
	var out IssueCollectionResponse
	err := pc.doJSON(ctx, consts.ServiceKeyBilling, http.MethodPost, "/collections", req, &out, false)
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "Collection issued at provider",
		slog.String("our_reference", req.OurReference),
		slog.String("external_id", out.ExternalID))
	return &out, nil
}

func (pc *ProviderClient) CancelCollection(ctx context.Context, externalID, reason string) error {
	payload := map[string]string{"reason": reason}
	path := fmt.Sprintf("/collections/%s/cancel", externalID)

	if err := pc.doJSON(ctx, consts.ServiceKeyBilling, http.MethodPost, path, payload, nil, false); err != nil {
		return err
	}

	logger.CtxInfo(ctx, "Collection canceled at provider",
		slog.String("external_id", externalID),
		slog.String("reason", reason))
	return nil
}

func (pc *ProviderClient) ExtendDueDate(ctx context.Context, externalID, newDueDate string) (*ExtendDueDateResponse, error) {
	payload := map[string]string{"dueDate": newDueDate}
	path := fmt.Sprintf("/collections/%s/due-date", externalID)

	var out ExtendDueDateResponse
	if err := pc.doJSON(ctx, consts.ServiceKeyBilling, http.MethodPatch, path, payload, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (pc *ProviderClient) GetCollection(ctx context.Context, externalID string) (*CollectionDetail, error) {
	var out CollectionDetail
	path := fmt.Sprintf("/collections/%s", externalID)

	if err := pc.doJSON(ctx, consts.ServiceKeyQueries, http.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadDocument fetches the printable payment document (PDF) for an
// issued collection.
func (pc *ProviderClient) DownloadDocument(ctx context.Context, externalID string) ([]byte, error) {
	var doc []byte

	err := pc.limiter.Execute(ctx, consts.ServiceKeyQueries, func(ctx context.Context) error {
		path := fmt.Sprintf("%s/collections/%s/document", pc.baseURL, externalID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+pc.apiToken)
		req.Header.Set("Accept", "application/pdf")

		resp, err := pc.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return &models.ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		doc = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
