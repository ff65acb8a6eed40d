// Package pagination 实现基于游标（实体 ID）的分页。
//
// 规范顺序为 (created_at DESC, id ASC)：时间相同按 id 升序，保证全序，
// 同一时间戳下的并发写入也不会导致翻页重复或遗漏。
package pagination

import (
	"sort"
	"time"

	"github.com/d60-Lab/social-feed/internal/apperr"
)

// Request 分页请求；Before 与 After 互斥
type Request struct {
	Limit  int    `form:"limit" json:"limit,omitempty"`
	Before string `form:"before" json:"before,omitempty"`
	After  string `form:"after" json:"after,omitempty"`
}

// Validate 同时设置 before/after 或 limit 为负数时返回 BadRequest
func (r Request) Validate() error {
	if r.Before != "" && r.After != "" {
		return apperr.BadRequest("before and after are mutually exclusive")
	}
	if r.Limit < 0 {
		return apperr.BadRequest("limit must not be negative")
	}
	return nil
}

// Cursor 返回当前游标及方向
func (r Request) Cursor() (id string, backward bool) {
	if r.Before != "" {
		return r.Before, true
	}
	return r.After, false
}

// Policy 分页上限策略。Max 为硬上限；Default 为未指定 limit 时的取值，0 表示取 Max。
type Policy struct {
	Default int
	Max     int
}

// DefaultPolicy 与 feed.max_page_size 的默认值一致
var DefaultPolicy = Policy{Max: 100}

// Limit 计算本次请求的实际条数
func (p Policy) Limit(r Request) int {
	max := p.Max
	if max <= 0 {
		max = DefaultPolicy.Max
	}
	n := r.Limit
	if n == 0 {
		n = p.Default
	}
	if n <= 0 || n > max {
		n = max
	}
	return n
}

// Item 可分页的实体
type Item interface {
	CursorID() string
	CursorTime() time.Time
}

// Less 规范顺序：created_at 降序，id 升序
func Less(a, b Item) bool {
	ta, tb := a.CursorTime(), b.CursorTime()
	if !ta.Equal(tb) {
		return ta.After(tb)
	}
	return a.CursorID() < b.CursorID()
}

// Sort 原地按规范顺序排序
func Sort[T Item](items []T) {
	sort.SliceStable(items, func(i, j int) bool { return Less(items[i], items[j]) })
}

// Paginate 对内存中的候选集分页。
//
//   - after=X：返回 X 之后（不含 X）的至多 limit 条
//   - before=X：返回紧邻 X 之前的至多 limit 条（即 "X 之前的最后 N 条"），仍按规范顺序输出
//   - 无游标：从头取 limit 条
//
// 游标不在候选集中时返回空页而不是错误。
func Paginate[T Item](items []T, req Request, p Policy) ([]T, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	limit := p.Limit(req)

	sorted := make([]T, len(items))
	copy(sorted, items)
	Sort(sorted)

	cursor, backward := req.Cursor()
	if cursor == "" {
		return window(sorted, 0, limit), nil
	}

	idx := -1
	for i, it := range sorted {
		if it.CursorID() == cursor {
			idx = i
			break
		}
	}
	if idx < 0 {
		return []T{}, nil
	}
	if backward {
		start := idx - limit
		if start < 0 {
			start = 0
		}
		return window(sorted, start, idx-start), nil
	}
	return window(sorted, idx+1, limit), nil
}

func window[T any](items []T, start, n int) []T {
	if start >= len(items) {
		return []T{}
	}
	end := start + n
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// Reverse 原地反转
func Reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
