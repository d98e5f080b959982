package converter

import (
	"fmt"

	"github.com/LJTian/RedTrend/internal/hackernews"
)

const fallbackCoverAsset = "/static/cover-fallback.png"

// fallbackTags 是生成服务不可用时的固定标签集
var fallbackTags = []string{"科技资讯", "程序员日常", "HackerNews", "互联网趋势", "技术创新"}

// Fallback 是生成服务不可用时的确定性降级转换：纯函数，永不失败。
// 产出与 Convert 形状完全一致，由唯一的成败分支决定用哪个生产者，
// 不做字段级的零散兜底合并。
func Fallback(story hackernews.Story) Post {
	tags := make([]string, len(fallbackTags))
	copy(tags, fallbackTags)

	content := fmt.Sprintf(`各位小伙伴们好！今天给大家分享一个超级有趣的科技新闻！🚀

%s

这个新闻来自 Hacker News，绝对是技术圈的大事件！💻✨

想深入了解吗？可以去看看原文哦！注意：原文是英语的哦！👇
%s

如果觉得有收获，别忘了点赞+收藏哦！❤️📌`, story.Title, story.PageURL())

	return Post{
		ID:               story.ID,
		Title:            fmt.Sprintf("🔥 %s 💡", story.Title),
		Tags:             tags,
		ImageDescription: fmt.Sprintf("一张体现\"%s\"主题的炫酷科技风图片", story.Title),
		Image:            ImageRef{Kind: ImageStatic, URL: fallbackCoverAsset},
		Content:          content,
	}
}
