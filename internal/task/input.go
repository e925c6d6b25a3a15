package task

import (
	"encoding/json"
	"fmt"
)

// OptionalString はJSONのフィールドが省略されたか、nullか、値を持つかを区別する。
type OptionalString struct {
	Set   bool    // フィールドがJSONに含まれていた
	Value *string // nullの場合はnil
}

// UnmarshalJSON はjson.Unmarshalerを実装する。nullの場合も呼び出される。
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected a string: %w", err)
	}
	o.Value = &s
	return nil
}

// StringValue は値を持つOptionalStringを返す。
func StringValue(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}

// Null はnullが指定されたOptionalStringを返す。
func Null() OptionalString {
	return OptionalString{Set: true}
}

// Input はタスクの作成・更新リクエストの内容。
// すべてワイヤフォーマットの文字列のまま受け取り、サービス層で検証する。
type Input struct {
	Title       OptionalString `json:"title"`
	Description OptionalString `json:"description"`
	Deadline    OptionalString `json:"deadline"`
	Completed   OptionalString `json:"completed"`
}
