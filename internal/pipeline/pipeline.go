package pipeline

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/LJTian/RedTrend/internal/converter"
	"github.com/LJTian/RedTrend/internal/hackernews"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCatalogTTL = 24 * time.Hour

	// 整页物化时的并发上限，与采集器对上游的压力约束保持一致
	pageConcurrency = 10

	tagSampleSize = 3
)

// ErrNotFound 表示上游不存在该 ID；对外是终态结果而不是故障
var ErrNotFound = hackernews.ErrNotFound

// Store 是协调器对缓存/存储层的唯一写入口；
// 所有落库都由协调器完成，采集与生成组件只返回值
type Store interface {
	Catalog(ctx context.Context) ([]int, bool, error)
	SetCatalog(ctx context.Context, ids []int, ttl time.Duration) error
	Item(ctx context.Context, id int) (hackernews.Story, bool, error)
	SetItem(ctx context.Context, story hackernews.Story) error
	Derived(ctx context.Context, id int) (converter.Post, bool, error)
	SetDerived(ctx context.Context, post converter.Post) error
}

// Feed 是上游内容源
type Feed interface {
	TopStoryIDs(ctx context.Context) ([]int, error)
	Item(ctx context.Context, id int) (hackernews.Story, error)
}

// Deriver 把原始条目转换为派生笔记
type Deriver interface {
	Convert(ctx context.Context, story hackernews.Story, excerpt string) (converter.Post, error)
}

// Excerpter 抓取正文链接的摘录，可为 nil（跳过增强）
type Excerpter interface {
	Excerpt(pageURL string) string
}

// Summary 是列表页的条目摘要
type Summary struct {
	ID     int                `json:"id"`
	Title  string             `json:"title"`
	Author string             `json:"author"`
	Score  int                `json:"score"`
	Tags   []string           `json:"tags"`
	Image  converter.ImageRef `json:"image"`
}

type Pipeline struct {
	store   Store
	feed    Feed
	deriver Deriver
	excerpt Excerpter

	catalogTTL time.Duration

	// 同一 ID 同时只允许一次在途派生；并发读共享同一结果
	flight singleflight.Group
}

func New(store Store, feed Feed, deriver Deriver, excerpt Excerpter, catalogTTL time.Duration) *Pipeline {
	if catalogTTL <= 0 {
		catalogTTL = defaultCatalogTTL
	}
	return &Pipeline{
		store:      store,
		feed:       feed,
		deriver:    deriver,
		excerpt:    excerpt,
		catalogTTL: catalogTTL,
	}
}

// GetPost 是单条读路径：
// 命中已生成的笔记直接返回；未命中则拉原始条目并派生，
// 生成成功才落库，生成失败用确定性降级回答且绝不落库——
// 失败的派生一旦混进缓存，一次生成服务抖动就会固化成永久的降级记录。
func (p *Pipeline) GetPost(ctx context.Context, id int) (converter.Post, error) {
	if post, ok, err := p.store.Derived(ctx, id); err != nil {
		log.Printf("pipeline: derived %d read degraded: %v", id, err)
	} else if ok {
		return post, nil
	}

	v, err, _ := p.flight.Do(strconv.Itoa(id), func() (any, error) {
		// 等锁期间可能已有人写入
		if post, ok, err := p.store.Derived(ctx, id); err == nil && ok {
			return post, nil
		}

		story, err := p.story(ctx, id)
		if err != nil {
			return nil, err
		}

		post, err := p.deriver.Convert(ctx, story, p.excerptFor(story))
		if err != nil {
			log.Printf("pipeline: derive %d failed, serving fallback: %v", id, err)
			return converter.Fallback(story), nil
		}

		if err := p.store.SetDerived(ctx, post); err != nil {
			// 存储退化为直通模式：照常返回结果，下次再算
			log.Printf("pipeline: persist derived %d: %v", id, err)
		}
		return post, nil
	})
	if err != nil {
		return converter.Post{}, err
	}
	return v.(converter.Post), nil
}

// Regenerate 管理端强制重新派生；只有生成成功才覆盖既有记录
func (p *Pipeline) Regenerate(ctx context.Context, id int) (converter.Post, error) {
	story, err := p.story(ctx, id)
	if err != nil {
		return converter.Post{}, err
	}

	post, err := p.deriver.Convert(ctx, story, p.excerptFor(story))
	if err != nil {
		return converter.Post{}, fmt.Errorf("pipeline: regenerate %d: %w", id, err)
	}

	if err := p.store.SetDerived(ctx, post); err != nil {
		log.Printf("pipeline: persist regenerated %d: %v", id, err)
	}
	return post, nil
}

// ListPage 在榜单快照上取一页并物化摘要。
// 同一缓存期内重复调用返回一致且不重叠的分页序列；
// 列表不触发生成：未派生的条目用降级转换就地取标签样本与配图。
func (p *Pipeline) ListPage(ctx context.Context, count, offset int) ([]Summary, error) {
	if count <= 0 || offset < 0 {
		return []Summary{}, nil
	}

	ids, err := p.catalog(ctx)
	if err != nil {
		return nil, err
	}
	if offset >= len(ids) {
		return []Summary{}, nil
	}
	if offset+count > len(ids) {
		count = len(ids) - offset
	}
	page := ids[offset : offset+count]

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, pageConcurrency)
		results = make([]*Summary, len(page))
	)

	for i, id := range page {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx, id int) {
			defer wg.Done()
			defer func() { <-sem }()

			s, err := p.summary(ctx, id)
			if err != nil {
				log.Printf("pipeline: summarize %d: %v", id, err)
				return
			}
			mu.Lock()
			results[idx] = &s
			mu.Unlock()
		}(i, id)
	}
	wg.Wait()

	out := make([]Summary, 0, len(results))
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

// RefreshCatalog 整体重建榜单快照（不做增量合并），按 TTL 过期
func (p *Pipeline) RefreshCatalog(ctx context.Context) ([]int, error) {
	ids, err := p.feed.TopStoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: refresh catalog: %w", err)
	}
	ids = dedupe(ids)

	if err := p.store.SetCatalog(ctx, ids, p.catalogTTL); err != nil {
		log.Printf("pipeline: persist catalog: %v", err)
	}
	return ids, nil
}

// Warm 预派生榜单前 n 条，供定时任务调用；单条失败跳过不中断
func (p *Pipeline) Warm(ctx context.Context, n int) {
	ids, err := p.catalog(ctx)
	if err != nil {
		log.Printf("pipeline: warm: catalog: %v", err)
		return
	}
	if n > len(ids) {
		n = len(ids)
	}

	warmed := 0
	for _, id := range ids[:n] {
		if _, ok, err := p.store.Derived(ctx, id); err == nil && ok {
			continue
		}
		if _, err := p.GetPost(ctx, id); err != nil {
			log.Printf("pipeline: warm %d: %v", id, err)
			continue
		}
		warmed++
	}
	log.Printf("pipeline: warm done, processed=%d of top %d", warmed, n)
}

// catalog 返回榜单快照，未命中时整体重建
func (p *Pipeline) catalog(ctx context.Context) ([]int, error) {
	ids, ok, err := p.store.Catalog(ctx)
	if err != nil {
		log.Printf("pipeline: catalog read degraded: %v", err)
	} else if ok {
		return ids, nil
	}
	return p.RefreshCatalog(ctx)
}

// story 取原始条目：store 优先，未命中回源上游并持久化
func (p *Pipeline) story(ctx context.Context, id int) (hackernews.Story, error) {
	if story, ok, err := p.store.Item(ctx, id); err != nil {
		log.Printf("pipeline: item %d read degraded: %v", id, err)
	} else if ok {
		return story, nil
	}

	story, err := p.feed.Item(ctx, id)
	if err != nil {
		return hackernews.Story{}, err
	}
	if err := p.store.SetItem(ctx, story); err != nil {
		log.Printf("pipeline: persist item %d: %v", id, err)
	}
	return story, nil
}

func (p *Pipeline) summary(ctx context.Context, id int) (Summary, error) {
	story, err := p.story(ctx, id)
	if err != nil {
		return Summary{}, err
	}

	post, ok, err := p.store.Derived(ctx, id)
	if err != nil || !ok {
		post = converter.Fallback(story)
		post.Title = story.Title
	}

	tags := post.Tags
	if len(tags) > tagSampleSize {
		tags = tags[:tagSampleSize]
	}
	return Summary{
		ID:     id,
		Title:  post.Title,
		Author: story.By,
		Score:  story.Score,
		Tags:   tags,
		Image:  post.Image,
	}, nil
}

func (p *Pipeline) excerptFor(story hackernews.Story) string {
	// 条目自带正文时不再抓外链
	if p.excerpt == nil || story.Text != "" {
		return ""
	}
	return p.excerpt.Excerpt(story.URL)
}

func dedupe(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
