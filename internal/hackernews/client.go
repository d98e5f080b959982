package hackernews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL    = "https://hacker-news.firebaseio.com/v0"
	maxResponseBytes  = 1 << 20 // 1MB
	topClientTimeout  = 10 * time.Second
	itemClientTimeout = 5 * time.Second
	maxCatalogEntries = 500
)

var (
	// ErrNotFound 表示上游不存在该 ID（接口返回 null 或 404）
	ErrNotFound = errors.New("hackernews: item not found")
	// ErrUpstream 表示上游不可用（超时、网络错误、非 2xx）
	ErrUpstream = errors.New("hackernews: upstream unavailable")
)

// Story 是从 Hacker News 拉取的原始条目；一经拉取视为不可变
type Story struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	By    string `json:"by"`
	Time  int64  `json:"time"`
	Score int    `json:"score"`
	Text  string `json:"text"`
	Type  string `json:"type"`
}

// PageURL 返回条目的展示链接；原文无链接时退回 HN 评论页
func (s Story) PageURL() string {
	if s.URL != "" {
		return s.URL
	}
	return fmt.Sprintf("https://news.ycombinator.com/item?id=%d", s.ID)
}

type Client struct {
	baseURL    string
	topClient  *http.Client
	itemClient *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		topClient:  &http.Client{Timeout: topClientTimeout},
		itemClient: &http.Client{Timeout: itemClientTimeout},
	}
}

// TopStoryIDs 全量拉取热门榜单 ID；调用方整体落缓存，分页只在快照上做
func (c *Client) TopStoryIDs(ctx context.Context) ([]int, error) {
	body, err := c.get(ctx, c.topClient, c.baseURL+"/topstories.json")
	if err != nil {
		return nil, err
	}

	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, fmt.Errorf("hackernews: unmarshal top stories: %w", err)
	}
	if len(ids) > maxCatalogEntries {
		ids = ids[:maxCatalogEntries]
	}
	return ids, nil
}

// Item 拉取单条记录；幂等，可安全重试
func (c *Client) Item(ctx context.Context, id int) (Story, error) {
	body, err := c.get(ctx, c.itemClient, fmt.Sprintf("%s/item/%d.json", c.baseURL, id))
	if err != nil {
		return Story{}, err
	}

	// HN 对不存在的 ID 返回字面量 null
	if len(body) == 0 || string(body) == "null" {
		return Story{}, fmt.Errorf("hackernews: item %d: %w", id, ErrNotFound)
	}

	var s Story
	if err := json.Unmarshal(body, &s); err != nil {
		return Story{}, fmt.Errorf("hackernews: unmarshal item %d: %w", id, err)
	}
	if s.ID == 0 {
		return Story{}, fmt.Errorf("hackernews: item %d: %w", id, ErrNotFound)
	}
	return s, nil
}

func (c *Client) get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("hackernews: new request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hackernews: %v: %w", err, ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("hackernews: %s: %w", url, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hackernews: status %d: %w", resp.StatusCode, ErrUpstream)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("hackernews: read body: %w", ErrUpstream)
	}
	return body, nil
}
