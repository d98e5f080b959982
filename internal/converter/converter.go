package converter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LJTian/RedTrend/internal/hackernews"
	"golang.org/x/sync/errgroup"
)

const (
	maxTags            = 5
	defaultCallTimeout = 30 * time.Second
)

const (
	titleSystemPrompt   = "你是一个专业的小红书标题撰写者。"
	tagsSystemPrompt    = "你是一个专业的小红书标签生成器。"
	imageSystemPrompt   = "你是一个专业的图片描述生成器。"
	contentSystemPrompt = "你是一个专业的小红书内容创作者。"
)

// Completer 是对生成服务的最小抽象；生产实现见 internal/generator
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Converter 把一条原始 Story 转换为派生笔记：
// 标题、标签、图片描述、正文四路生成互相无数据依赖，必须并发执行，
// 端到端时延取决于最慢的一路而不是四路之和。
type Converter struct {
	gen         Completer
	callTimeout time.Duration
}

func New(gen Completer, callTimeout time.Duration) *Converter {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Converter{gen: gen, callTimeout: callTimeout}
}

// Convert 生成一条完整笔记；任意一路失败则整体失败，由调用方决定是否降级。
// excerpt 是正文链接页面的摘录，可为空，仅用于给正文生成补充上下文。
func (c *Converter) Convert(ctx context.Context, story hackernews.Story, excerpt string) (Post, error) {
	var (
		title   string
		rawTags string
		imgDesc string
		content string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := c.complete(gctx, titleSystemPrompt,
			fmt.Sprintf("根据以下内容生成一个吸引人的小红书标题：%s", story.Title))
		if err != nil {
			return fmt.Errorf("title: %w", err)
		}
		title = strings.TrimSpace(out)
		return nil
	})

	g.Go(func() error {
		out, err := c.complete(gctx, tagsSystemPrompt,
			fmt.Sprintf("根据以下内容生成5个相关的小红书标签，用逗号分隔：%s", story.Title))
		if err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		rawTags = out
		return nil
	})

	g.Go(func() error {
		out, err := c.complete(gctx, imageSystemPrompt,
			fmt.Sprintf("根据以下内容生成一个简短的图片描述：%s", story.Title))
		if err != nil {
			return fmt.Errorf("image description: %w", err)
		}
		imgDesc = strings.TrimSpace(out)
		return nil
	})

	g.Go(func() error {
		prompt := fmt.Sprintf("根据以下标题生成一篇吸引人的小红书内容，包括简介、要点分析和结语：%s", story.Title)
		if excerpt != "" {
			prompt += fmt.Sprintf("\n\n原文摘录（供参考）：%s", excerpt)
		}
		out, err := c.complete(gctx, contentSystemPrompt, prompt)
		if err != nil {
			return fmt.Errorf("content: %w", err)
		}
		content = strings.TrimSpace(out)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Post{}, fmt.Errorf("converter: story %d: %w", story.ID, err)
	}

	return Post{
		ID:               story.ID,
		Title:            title,
		Tags:             ParseTags(rawTags),
		ImageDescription: imgDesc,
		Image:            ImageRef{Kind: ImageRemote, URL: imageURLFor(story.ID)},
		Content:          content,
	}, nil
}

// complete 给每一路生成单独限时：某一路挂起不应拖住其余三路
func (c *Converter) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.gen.Complete(ctx, system, user)
}

// ParseTags 把模型返回的逗号分隔标签串解析为标签列表。
// 空串、解析不出内容都返回空列表，绝不把解析问题放大成整条记录失败。
func ParseTags(raw string) []string {
	// 兼容中英文逗号与顿号
	raw = strings.NewReplacer("，", ",", "、", ",").Replace(raw)

	tags := make([]string, 0, maxTags)
	for _, part := range strings.Split(raw, ",") {
		t := strings.TrimSpace(part)
		t = strings.TrimPrefix(t, "#")
		if t == "" {
			continue
		}
		tags = append(tags, t)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

// imageURLFor 用故事 ID 做种子，保证同一条笔记的配图稳定
func imageURLFor(id int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%d/1024/1024", id)
}
