package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const maxPageSize = 200

// applyPagination 应用分页参数，统一处理非法页码与超大页长。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}

// applyCreatedRange 应用创建时间范围过滤
func applyCreatedRange(query *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where(column+" >= ?", *from)
	}
	if to != nil {
		query = query.Where(column+" <= ?", *to)
	}
	return query
}

// firstOrNil 取第一条记录，未找到时返回 nil, nil
func firstOrNil[T any](query *gorm.DB) (*T, error) {
	var row T
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
