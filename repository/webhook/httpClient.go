package webhookrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/binkim00/rentex/util/httpx"
)

type httpRepo struct {
	url    string
	client *http.Client
}

func NewHTTP(url string) Repo { return &httpRepo{url: url, client: httpx.Client()} }

func (r *httpRepo) NotifyOverdue(ctx context.Context, ev OverdueEvent) error {
	b, err := json.Marshal(map[string]any{
		"type":  "rental.overdue",
		"event": ev,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("overdue webhook failed: %s", resp.Status)
	}
	return nil
}
