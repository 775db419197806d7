package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateError 判断是否为唯一索引冲突
// MySQL: 1062 Duplicate entry; SQLite: UNIQUE constraint failed
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

// likeEscape 与likePattern配合使用:  column LIKE ? ESCAPE '!'
// 选用'!'是因为MySQL与SQLite对反斜杠的处理不一致
const likeEscape = " LIKE ? ESCAPE '!'"

// likePattern 转义LIKE通配符后包成 %keyword%
func likePattern(keyword string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return "%" + r.Replace(strings.TrimSpace(keyword)) + "%"
}

// paginate 分页,pageSize<=0时不分页
func paginate(db *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return db
	}
	if page < 1 {
		page = 1
	}
	return db.Limit(pageSize).Offset((page - 1) * pageSize)
}
