package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// HTTPSource fetches worksheet rows from a remote JSON endpoint:
// GET <base_url>/<worksheet> returns an array of row objects keyed by the
// worksheet column names.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a source for the given base URL.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Records(ctx context.Context, worksheet string) ([]Reading, error) {
	u := s.baseURL + "/" + url.PathEscape(worksheet)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch worksheet %s: %w", worksheet, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrWorksheetNotFound, worksheet)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch worksheet %s: unexpected status %d", worksheet, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch worksheet %s: %w", worksheet, err)
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("fetch worksheet %s: response is not a JSON array", worksheet)
	}

	var readings []Reading
	parsed.ForEach(func(_, value gjson.Result) bool {
		row := make(map[string]string)
		value.ForEach(func(key, cell gjson.Result) bool {
			row[strings.ToLower(key.String())] = cell.String()
			return true
		})
		readings = append(readings, readingFromRow(row))
		return true
	})
	if readings == nil {
		readings = []Reading{}
	}
	sortByTimestamp(readings)
	return readings, nil
}
