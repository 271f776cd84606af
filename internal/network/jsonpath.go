package network

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ReadString 按路径读取 JSON 字段，数字段视为数组下标
func ReadString(raw map[string]interface{}, path ...string) string {
	v := readValue(raw, path...)
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// FirstString 依次尝试多个路径，返回第一个非空值
func FirstString(raw map[string]interface{}, paths ...[]string) string {
	for _, p := range paths {
		if s := ReadString(raw, p...); s != "" {
			return s
		}
	}
	return ""
}

// ReadArray 按路径读取数组
func ReadArray(raw map[string]interface{}, path ...string) []interface{} {
	arr, _ := readValue(raw, path...).([]interface{})
	return arr
}

// ResponseMessage 提取常见的错误文案字段
func ResponseMessage(raw map[string]interface{}) string {
	return FirstString(raw,
		[]string{"message"},
		[]string{"error"},
		[]string{"error", "message"},
		[]string{"errors", "0"},
		[]string{"errors", "0", "message"},
	)
}

func readValue(raw map[string]interface{}, path ...string) interface{} {
	if raw == nil {
		return nil
	}
	var current interface{} = raw
	for _, seg := range path {
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := current.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return nil
			}
			current = arr[idx]
			continue
		}
		next, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = next[seg]
	}
	return current
}
