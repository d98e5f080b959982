package converter

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LJTian/RedTrend/internal/hackernews"
)

// stubCompleter 按 system prompt 分流返回固定文本
type stubCompleter struct {
	mu      sync.Mutex
	calls   int
	replies map[string]string
	err     error
}

func (s *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if out, ok := s.replies[system]; ok {
		return out, nil
	}
	return "默认回复", nil
}

func TestConvertAssemblesAllFourGenerations(t *testing.T) {
	stub := &stubCompleter{replies: map[string]string{
		titleSystemPrompt:   "🔥 超火的新技术 💡",
		tagsSystemPrompt:    "科技,编程,AI",
		imageSystemPrompt:   "一张科技感图片",
		contentSystemPrompt: "正文内容",
	}}

	c := New(stub, time.Second)
	story := hackernews.Story{ID: 42, Title: "Foo"}
	post, err := c.Convert(context.Background(), story, "")
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}

	if post.ID != 42 {
		t.Fatalf("post.ID = %d, want 42", post.ID)
	}
	if post.Title != "🔥 超火的新技术 💡" {
		t.Fatalf("unexpected title %q", post.Title)
	}
	if !reflect.DeepEqual(post.Tags, []string{"科技", "编程", "AI"}) {
		t.Fatalf("unexpected tags %v", post.Tags)
	}
	if post.ImageDescription != "一张科技感图片" || post.Content != "正文内容" {
		t.Fatalf("unexpected post %+v", post)
	}
	if post.Image.Kind != ImageRemote || !strings.Contains(post.Image.URL, "/seed/42/") {
		t.Fatalf("unexpected image ref %+v", post.Image)
	}
	if stub.calls != 4 {
		t.Fatalf("expected 4 generation calls, got %d", stub.calls)
	}
}

func TestConvertFailsWhenAnyGenerationFails(t *testing.T) {
	wantErr := errors.New("boom")
	stub := &stubCompleter{err: wantErr}

	c := New(stub, time.Second)
	_, err := c.Convert(context.Background(), hackernews.Story{ID: 1, Title: "x"}, "")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped boom error, got %v", err)
	}
}

func TestConvertRunsGenerationsConcurrently(t *testing.T) {
	// 每路阻塞 100ms；串行要 400ms+，并发应远低于此
	slow := &slowCompleter{delay: 100 * time.Millisecond}
	c := New(slow, time.Second)

	start := time.Now()
	_, err := c.Convert(context.Background(), hackernews.Story{ID: 1, Title: "x"}, "")
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Fatalf("generations look sequential: took %s", elapsed)
	}
}

type slowCompleter struct{ delay time.Duration }

func (s *slowCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	select {
	case <-time.After(s.delay):
		return "a,b,c", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestParseTags(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{"", []string{}},
		{" #科技 ，编程、 AI ", []string{"科技", "编程", "AI"}},
		{"1,2,3,4,5,6,7", []string{"1", "2", "3", "4", "5"}},
		{",,,", []string{}},
	}
	for _, tc := range cases {
		got := ParseTags(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ParseTags(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
