package converter

// ImageKind 区分配图来源；避免用可空字符串表达“无图/站内图/外链图”三种形态
type ImageKind string

const (
	ImageNone   ImageKind = "none"
	ImageStatic ImageKind = "static"
	ImageRemote ImageKind = "remote"
)

type ImageRef struct {
	Kind ImageKind `json:"kind"`
	URL  string    `json:"url,omitempty"`
}

// Post 是一条小红书风格的派生笔记，与原始 Story 共用同一个 ID。
// 要么四路生成全部成功整体落库，要么整体不落库，不存在字段残缺的记录。
type Post struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	Tags             []string `json:"tags"`
	ImageDescription string   `json:"imageDescription"`
	Image            ImageRef `json:"image"`
	Content          string   `json:"content"`
}
