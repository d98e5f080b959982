package storage

import "fmt"

// Redis key 按类别加前缀，避免原始条目与派生笔记共用数字 ID 时互相踩踏
const catalogKey = "catalog"

func itemKey(id int) string {
	return fmt.Sprintf("item:%d", id)
}

func derivedKey(id int) string {
	return fmt.Sprintf("derived:%d", id)
}
