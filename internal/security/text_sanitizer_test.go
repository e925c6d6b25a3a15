package security

import "testing"

func TestTextSanitizer_Sanitize(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Buy milk", "Buy milk"},
		{"空文字列", "", ""},
		{"タグを除去", "<b>Buy</b> milk", "Buy milk"},
		{"scriptタグは内容ごと除去", `Pay rent<script>alert("x")</script>`, "Pay rent"},
		{"イベント属性付きタグを除去", `<img src="x" onerror="alert(1)">Call mom`, "Call mom"},
		{"アンパサンドを保持", "Salt & pepper", "Salt & pepper"},
		{"引用符を保持", `Read "Dune"`, `Read "Dune"`},
		{"前後の空白を除去", "  <p> Walk dog </p> ", "Walk dog"},
		{"日本語", "<em>買い物</em>に行く", "買い物に行く"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextSanitizer_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()

	inputs := []string{
		"<div>Plan <strong>trip</strong></div>",
		"Tom & Jerry",
		"a < b",
	}
	for _, in := range inputs {
		once := sanitizer.Sanitize(in)
		twice := sanitizer.Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}
