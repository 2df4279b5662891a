// Package option holds composable gorm query modifiers used by the
// repositories.
package option

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 250
)

// QueryOption mutates a statement before execution.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

func (o Operator) valid() bool {
	switch o {
	case EQ, NEQ, GT, GTE, LT, LTE:
		return true
	default:
		return false
	}
}

// Condition is a single "field operator value" predicate. Field must be a
// trusted column name; it is never taken from user input directly.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds the condition as a WHERE clause. Invalid conditions are
// ignored.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(cond.Field)
		if field == "" || !cond.Operator.valid() {
			return db
		}
		return db.Where(fmt.Sprintf("%s %s ?", field, cond.Operator), cond.Value)
	})
}

// OrderBy orders by a trusted ORDER BY expression, or "id desc" when empty.
func OrderBy(expr string) QueryOption {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = "id desc"
	}
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Order(expr)
	})
}

// ApplyPagination applies keyset pagination on id (newest first). It
// fetches one extra row so callers can tell whether more pages exist.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := NormalizePageSize(page.PageSize)
		if token := strings.TrimSpace(page.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err == nil && cursor != nil {
				if id, err := snowflake.ParseString(cursor.ID); err == nil {
					db = db.Where("id < ?", id)
				}
			}
		}
		return db.Order("id desc").Limit(size + 1)
	})
}

// NormalizePageSize clamps a requested page size.
func NormalizePageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

// IncludeDeleted lifts gorm's soft-delete scope.
func IncludeDeleted() QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	})
}
