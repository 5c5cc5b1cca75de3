package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON 通用 JSON 对象类型，用于存储设置与审计详情
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	switch raw := value.(type) {
	case []byte:
		return json.Unmarshal(raw, j)
	case string:
		return json.Unmarshal([]byte(raw), j)
	default:
		return nil
	}
}
