package excerpt

import (
	"log"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	defaultTimeout = 8 * time.Second
	defaultMaxLen  = 500
	maxParagraphs  = 3
)

// Fetcher 抓取正文链接页面的简短摘录，作为正文生成的补充上下文。
// 完全尽力而为：任何失败都返回空串，绝不阻塞或拖垮派生流程。
type Fetcher struct {
	timeout time.Duration
	maxLen  int
}

func NewFetcher() *Fetcher {
	return &Fetcher{timeout: defaultTimeout, maxLen: defaultMaxLen}
}

// Excerpt 优先取 meta description，否则拼接前几个段落
func (f *Fetcher) Excerpt(pageURL string) string {
	if pageURL == "" {
		return ""
	}

	c := colly.NewCollector(colly.MaxDepth(1))
	c.SetRequestTimeout(f.timeout)
	c.UserAgent = "Mozilla/5.0 (compatible; RedTrendBot/1.0)"

	var (
		desc  string
		paras []string
	)
	c.OnHTML(`meta[name="description"]`, func(e *colly.HTMLElement) {
		if desc == "" {
			desc = strings.TrimSpace(e.Attr("content"))
		}
	})
	c.OnHTML("p", func(e *colly.HTMLElement) {
		if len(paras) >= maxParagraphs {
			return
		}
		if text := strings.TrimSpace(e.Text); text != "" {
			paras = append(paras, text)
		}
	})

	if err := c.Visit(pageURL); err != nil {
		log.Printf("excerpt: visit %s: %v", pageURL, err)
		return ""
	}

	out := desc
	if out == "" {
		out = strings.Join(paras, " ")
	}
	return truncateRunes(out, f.maxLen)
}

// truncateRunes 按 rune 数截断，避免把多字节字符截成半个
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "…"
}
