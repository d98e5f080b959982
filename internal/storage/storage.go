package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/LJTian/RedTrend/internal/converter"
	"github.com/LJTian/RedTrend/internal/hackernews"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// 条目与笔记在 Redis 中的热缓存时长；两者在 Postgres 中持久保留，
// Redis 未命中时回源数据库并回填
const itemHotTTL = 24 * time.Hour

// ErrUnavailable 表示缓存/存储层不可达；调用方应降级为直连计算而不是报错
var ErrUnavailable = errors.New("storage: unavailable")

// StoryRecord 是原始条目的落库形态
type StoryRecord struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:512" json:"title"`
	URL         string    `gorm:"size:1024" json:"url"`
	Author      string    `gorm:"size:128" json:"author"`
	PublishedAt time.Time `gorm:"index" json:"publishedAt"`
	Score       int       `gorm:"index" json:"score"`
	Text        string    `json:"text"`

	ExtraData datatypes.JSONMap `gorm:"type:jsonb" json:"extraData"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (StoryRecord) TableName() string { return "stories" }

// PostRecord 是派生笔记的落库形态；只保存整体生成成功的记录
type PostRecord struct {
	ID               int                         `gorm:"primaryKey" json:"id"`
	Title            string                      `gorm:"size:512" json:"title"`
	Tags             datatypes.JSONSlice[string] `json:"tags"`
	ImageDescription string                      `gorm:"size:1024" json:"imageDescription"`
	ImageKind        string                      `gorm:"size:16" json:"imageKind"`
	ImageURL         string                      `gorm:"size:1024" json:"imageUrl"`
	Content          string                      `json:"content"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PostRecord) TableName() string { return "posts" }

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&StoryRecord{}, &PostRecord{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// Catalog 返回当前榜单快照；过期或不存在视为未命中。
// 榜单只放 Redis：它本来就该按 TTL 整体过期，没有持久化价值。
func (s *Store) Catalog(ctx context.Context) ([]int, bool, error) {
	bs, err := s.Redis.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog get: %v: %w", err, ErrUnavailable)
	}

	var ids []int
	if err := json.Unmarshal(bs, &ids); err != nil {
		// 缓存内容损坏等价于未命中，由上层整体重建
		return nil, false, nil
	}
	return ids, true, nil
}

func (s *Store) SetCatalog(ctx context.Context, ids []int, ttl time.Duration) error {
	bs, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := s.Redis.Set(ctx, catalogKey, bs, ttl).Err(); err != nil {
		return fmt.Errorf("catalog set: %v: %w", err, ErrUnavailable)
	}
	return nil
}

// Item 先查 Redis 热缓存，未命中回源 Postgres 并回填
func (s *Store) Item(ctx context.Context, id int) (hackernews.Story, bool, error) {
	bs, err := s.Redis.Get(ctx, itemKey(id)).Bytes()
	if err == nil {
		var story hackernews.Story
		if uerr := json.Unmarshal(bs, &story); uerr == nil {
			return story, true, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("storage: item %d redis get: %v", id, err)
	}

	var rec StoryRecord
	if err := s.DB.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return hackernews.Story{}, false, nil
		}
		return hackernews.Story{}, false, fmt.Errorf("item %d db get: %v: %w", id, err, ErrUnavailable)
	}

	story := recordToStory(rec)
	s.backfill(ctx, itemKey(id), story, itemHotTTL)
	return story, true, nil
}

// SetItem 覆盖写：同一 ID 视为同一逻辑实体，重新拉取即整体覆盖
func (s *Store) SetItem(ctx context.Context, story hackernews.Story) error {
	rec := storyToRecord(story)
	if err := s.DB.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("item %d db set: %v: %w", story.ID, err, ErrUnavailable)
	}
	s.backfill(ctx, itemKey(story.ID), story, itemHotTTL)
	return nil
}

// Derived 读取已生成的笔记；只可能读到完整记录
func (s *Store) Derived(ctx context.Context, id int) (converter.Post, bool, error) {
	bs, err := s.Redis.Get(ctx, derivedKey(id)).Bytes()
	if err == nil {
		var post converter.Post
		if uerr := json.Unmarshal(bs, &post); uerr == nil {
			return post, true, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("storage: derived %d redis get: %v", id, err)
	}

	var rec PostRecord
	if err := s.DB.WithContext(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return converter.Post{}, false, nil
		}
		return converter.Post{}, false, fmt.Errorf("derived %d db get: %v: %w", id, err, ErrUnavailable)
	}

	post := recordToPost(rec)
	s.backfill(ctx, derivedKey(id), post, itemHotTTL)
	return post, true, nil
}

// SetDerived 持久化一条生成成功的笔记：生成结果视为持久事实，
// 不设过期，重生成只能由管理端显式触发
func (s *Store) SetDerived(ctx context.Context, post converter.Post) error {
	rec := postToRecord(post)
	if err := s.DB.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("derived %d db set: %v: %w", post.ID, err, ErrUnavailable)
	}
	s.backfill(ctx, derivedKey(post.ID), post, itemHotTTL)
	return nil
}

// backfill 回填 Redis 热缓存；失败只记日志，不影响主流程
func (s *Store) backfill(ctx context.Context, key string, v any, ttl time.Duration) {
	bs, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, bs, ttl).Err(); err != nil {
		log.Printf("storage: backfill %s: %v", key, err)
	}
}

func storyToRecord(s hackernews.Story) StoryRecord {
	return StoryRecord{
		ID:          s.ID,
		Title:       s.Title,
		URL:         s.URL,
		Author:      s.By,
		PublishedAt: time.Unix(s.Time, 0),
		Score:       s.Score,
		Text:        s.Text,
		ExtraData:   datatypes.JSONMap{"type": s.Type},
	}
}

func recordToStory(r StoryRecord) hackernews.Story {
	typ, _ := r.ExtraData["type"].(string)
	return hackernews.Story{
		ID:    r.ID,
		Title: r.Title,
		URL:   r.URL,
		By:    r.Author,
		Time:  r.PublishedAt.Unix(),
		Score: r.Score,
		Text:  r.Text,
		Type:  typ,
	}
}

func postToRecord(p converter.Post) PostRecord {
	return PostRecord{
		ID:               p.ID,
		Title:            p.Title,
		Tags:             datatypes.NewJSONSlice(p.Tags),
		ImageDescription: p.ImageDescription,
		ImageKind:        string(p.Image.Kind),
		ImageURL:         p.Image.URL,
		Content:          p.Content,
	}
}

func recordToPost(r PostRecord) converter.Post {
	return converter.Post{
		ID:               r.ID,
		Title:            r.Title,
		Tags:             append([]string{}, r.Tags...),
		ImageDescription: r.ImageDescription,
		Image: converter.ImageRef{
			Kind: converter.ImageKind(r.ImageKind),
			URL:  r.ImageURL,
		},
		Content: r.Content,
	}
}
