package pagination

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Anchor 游标所在行的排序键
type Anchor struct {
	ID        string
	CreatedAt time.Time
}

// Query 在数据库侧实现与 Paginate 相同的语义（keyset 分页）。
//
// base 每次调用都必须返回带完整过滤条件的新查询链：游标行同样要满足过滤条件，
// 否则视为游标失效并返回空页。table 为 id / created_at 所在的表名或别名。
func Query[T any](base func() *gorm.DB, table string, req Request, limit int) ([]T, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	idCol := fmt.Sprintf("%s.id", table)
	tsCol := fmt.Sprintf("%s.created_at", table)

	q := base()
	cursor, backward := req.Cursor()
	if cursor != "" {
		var anchor Anchor
		res := base().Select(idCol, tsCol).Where(idCol+" = ?", cursor).Limit(1).Scan(&anchor)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return []T{}, nil
		}
		if backward {
			q = q.Where(
				fmt.Sprintf("((%s > ?) OR (%s = ? AND %s < ?))", tsCol, tsCol, idCol),
				anchor.CreatedAt, anchor.CreatedAt, anchor.ID,
			).Order(tsCol + " ASC").Order(idCol + " DESC")
		} else {
			q = q.Where(
				fmt.Sprintf("((%s < ?) OR (%s = ? AND %s > ?))", tsCol, tsCol, idCol),
				anchor.CreatedAt, anchor.CreatedAt, anchor.ID,
			)
		}
	}
	if !backward || cursor == "" {
		q = q.Order(tsCol + " DESC").Order(idCol + " ASC")
	}

	out := []T{}
	if err := q.Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	if backward && cursor != "" {
		Reverse(out)
	}
	return out, nil
}
