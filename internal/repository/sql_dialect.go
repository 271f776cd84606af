package repository

import (
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// likeOperatorByDialect postgres 使用 ILIKE 做大小写不敏感匹配
func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// buildLikeCondition 多列 OR LIKE 条件，返回条件与参数
func buildLikeCondition(db *gorm.DB, columns []string, keyword string) (string, []interface{}) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || len(columns) == 0 {
		return "", nil
	}
	op := likeOperatorByDialect(dbDialectName(db))
	parts := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	like := "%" + keyword + "%"
	for _, col := range columns {
		parts = append(parts, col+" "+op+" ?")
		args = append(args, like)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// IsUniqueViolation 唯一约束冲突（sqlite / postgres 文本兼容判断）
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if strings.Contains(err.Error(), "23505") {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// WithSavepoint 在保存点内执行写入；失败时回滚到保存点，外层事务仍可继续读写
func WithSavepoint(tx *gorm.DB, name string, fn func(db *gorm.DB) error) error {
	if tx == nil {
		return fn(nil)
	}
	if err := tx.SavePoint(name).Error; err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.RollbackTo(name).Error; rbErr != nil {
			return rbErr
		}
		return err
	}
	return nil
}
