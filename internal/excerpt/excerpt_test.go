package excerpt

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExcerptPrefersMetaDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="description" content="页面描述"></head><body><p>第一段</p></body></html>`)
	}))
	defer srv.Close()

	f := NewFetcher()
	if got := f.Excerpt(srv.URL); got != "页面描述" {
		t.Fatalf("Excerpt = %q, want %q", got, "页面描述")
	}
}

func TestExcerptFallsBackToParagraphs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>第一段</p><p>第二段</p><p>第三段</p><p>第四段</p></body></html>`)
	}))
	defer srv.Close()

	f := NewFetcher()
	got := f.Excerpt(srv.URL)
	if !strings.Contains(got, "第一段") || !strings.Contains(got, "第三段") {
		t.Fatalf("Excerpt should join leading paragraphs: %q", got)
	}
	if strings.Contains(got, "第四段") {
		t.Fatalf("Excerpt should stop after %d paragraphs: %q", maxParagraphs, got)
	}
}

func TestExcerptEmptyOnFailure(t *testing.T) {
	f := NewFetcher()
	if got := f.Excerpt("http://127.0.0.1:1/unreachable"); got != "" {
		t.Fatalf("Excerpt on failure = %q, want empty", got)
	}
	if got := f.Excerpt(""); got != "" {
		t.Fatalf("Excerpt on empty url = %q, want empty", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	s := "你好，世界，这是一个很长的中文句子"
	out := truncateRunes(s, 5)
	if len([]rune(out)) != 6 { // 5 个字符 + 1 个省略号
		t.Fatalf("truncateRunes length = %d, want 6: %q", len([]rune(out)), out)
	}

	// limit 大于长度时不应截断
	if full := truncateRunes("短文本", 10); full != "短文本" {
		t.Fatalf("truncateRunes should keep original when under limit: %q", full)
	}
}
