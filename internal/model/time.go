package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FlexTime is a time type that normalizes the two created_at shapes the
// backend emits: an ISO-8601 string on conversation creation, and a numeric
// epoch value elsewhere. Everything past the JSON boundary sees time.Time.
type FlexTime time.Time

const legacyTimeFormat = "2006-01-02 15:04:05"

// Time 返回底层的 time.Time 值。
func (t FlexTime) Time() time.Time {
	return time.Time(t)
}

// MarshalJSON implements the json.Marshaler interface.
func (t FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format(time.RFC3339Nano))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// 字符串按 RFC3339 / "2006-01-02 15:04:05" 解析；
// 数字大于 1e12 视为毫秒时间戳，否则视为秒。
func (t *FlexTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*t = FlexTime(time.Time{})
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, legacyTimeFormat} {
			if parsed, perr := time.Parse(layout, s); perr == nil {
				*t = FlexTime(parsed)
				return nil
			}
		}
		return fmt.Errorf("unsupported time string %q", s)
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unsupported time value %s", string(data))
	}
	if n > 1e12 {
		*t = FlexTime(time.UnixMilli(int64(n)))
	} else {
		*t = FlexTime(time.Unix(int64(n), 0))
	}
	return nil
}

// Value 实现 driver.Valuer，供 GORM 写入数据库。
func (t FlexTime) Value() (driver.Value, error) {
	return time.Time(t), nil
}

// Scan 实现 sql.Scanner，供 GORM 从数据库读取。
func (t *FlexTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*t = FlexTime(v)
		return nil
	case []byte:
		parsed, err := time.Parse(legacyTimeFormat, string(v))
		if err != nil {
			return err
		}
		*t = FlexTime(parsed)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into FlexTime", value)
	}
}
