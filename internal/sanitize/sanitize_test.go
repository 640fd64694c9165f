package sanitize

import (
	"strings"
	"testing"

	"github.com/opentoolhub/search-agent/internal/config"
)

func TestSanitize_StripsDangerousSubstrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "script block removed",
			input: "docker <script>alert(1)</script> backup",
			want:  "docker  backup",
		},
		{
			name:  "javascript scheme removed",
			input: "javascript:alert(1) editor",
			want:  "alert(1) editor",
		},
		{
			name:  "event handler removed",
			input: "tool onclick=hack here",
			want:  "tool hack here",
		},
		{
			name:  "html special characters removed",
			input: `mysql "backup" <tool>`,
			want:  "mysql backup tool",
		},
		{
			name:  "plain input untouched",
			input: "mysql备份工具",
			want:  "mysql备份工具",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_CapsLength(t *testing.T) {
	long := strings.Repeat("数", 300)

	got := Sanitize(long)

	if n := len([]rune(got)); n != MaxInputLength {
		t.Errorf("expected %d runes after truncation, got %d", MaxInputLength, n)
	}
}

func TestIsSafe(t *testing.T) {
	unsafe := []string{
		"<script>alert(1)</script>",
		"<SCRIPT src=x>",
		"javascript:void(0)",
		"onload=pwn",
		"eval(document.cookie)",
		"eval (x)",
		"exec(rm)",
		"system(ls)",
		"$(curl evil)",
		"`echo $HOME`",
		"${process.env}",
	}
	for _, input := range unsafe {
		if IsSafe(input) {
			t.Errorf("IsSafe(%q) = true, want false", input)
		}
	}

	safe := []string{
		"我想写日记",
		"mysql备份工具",
		"a journaling app",
		"evaluate my options", // "eval" without a call shape
	}
	for _, input := range safe {
		if !IsSafe(input) {
			t.Errorf("IsSafe(%q) = false, want true", input)
		}
	}
}

func TestGate_IsDomainRelevant(t *testing.T) {
	gate := NewGate(config.DefaultTaxonomy())

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{
			name:  "positive keyword passes",
			input: "mysql备份工具",
			want:  true,
		},
		{
			name:  "english positive keyword passes",
			input: "open source monitoring software",
			want:  true,
		},
		{
			name:  "only negative keywords rejected",
			input: "申请农业补贴流程",
			want:  false,
		},
		{
			name:  "positive wins over co-occurring negative",
			input: "农业补贴数据库工具",
			want:  true,
		},
		{
			name:  "ambiguous input passes through",
			input: "我想写点东西",
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gate.IsDomainRelevant(tt.input)
			if got != tt.want {
				t.Errorf("IsDomainRelevant(%q) = %t, want %t", tt.input, got, tt.want)
			}
		})
	}
}
