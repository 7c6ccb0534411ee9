package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Subjects maps school code to subject code to the subject's metadata.
type Subjects map[string]map[string]json.RawMessage

// Schools returns school codes in sorted order.
func (s Subjects) Schools() []string {
	out := make([]string, 0, len(s))
	for school := range s {
		out = append(out, school)
	}
	sort.Strings(out)
	return out
}

// Codes returns the school's subject codes in sorted order.
func (s Subjects) Codes(school string) []string {
	out := make([]string, 0, len(s[school]))
	for code := range s[school] {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of subject codes across all schools.
func (s Subjects) Count() int {
	n := 0
	for _, codes := range s {
		n += len(codes)
	}
	return n
}

// Filter keeps only the named schools. An empty filter keeps everything.
func (s Subjects) Filter(schools []string) (Subjects, error) {
	if len(schools) == 0 {
		return s, nil
	}
	out := make(Subjects, len(schools))
	for _, school := range schools {
		codes, ok := s[school]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSchool, school)
		}
		out[school] = codes
	}
	return out, nil
}

// ProgressFunc is called before each subject is fetched.
type ProgressFunc func(school, code string, done, total int)

// Client is a client for the Schedge course API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Schedge client. A nil logger disables logging.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Subjects fetches the school and subject listing.
func (c *Client) Subjects(ctx context.Context) (Subjects, error) {
	var subjects Subjects
	if err := c.get(ctx, "/subjects", nil, &subjects); err != nil {
		return nil, fmt.Errorf("fetching subjects: %w", err)
	}
	return subjects, nil
}

// FetchCourses downloads every subject's courses for a semester, one request
// at a time, and concatenates them in school then subject order.
func (c *Client) FetchCourses(ctx context.Context, year int, sem string, subjects Subjects, progress ProgressFunc) ([]json.RawMessage, error) {
	if err := ValidateSemester(sem); err != nil {
		return nil, err
	}

	total := subjects.Count()
	done := 0
	courses := []json.RawMessage{}

	for _, school := range subjects.Schools() {
		for _, code := range subjects.Codes(school) {
			if progress != nil {
				progress(school, code, done, total)
			}

			path := fmt.Sprintf("/%d/%s/%s/%s", year, sem, url.PathEscape(school), url.PathEscape(code))
			var page []json.RawMessage
			if err := c.get(ctx, path, url.Values{"full": {"true"}}, &page); err != nil {
				return nil, fmt.Errorf("fetching %s-%s: %w", code, school, err)
			}
			courses = append(courses, page...)
			done++

			c.logger.Debug("Fetched subject",
				zap.String("school", school),
				zap.String("code", code),
				zap.Int("courses", len(page)),
			)
		}
	}

	return courses, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
