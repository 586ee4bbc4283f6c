package llm

import (
	"testing"

	"pudding/internal/config"
)

func TestExtractGeminiText(t *testing.T) {
	body := []byte(`{"candidates":[{"content":{"parts":[{"text":" 第一段 "},{"text":"第二段"}]},"finishReason":"STOP"}]}`)

	got, err := extractGeminiText(body)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	want := "第一段\n第二段"
	if got != want {
		t.Fatalf("extractGeminiText = %q, want %q", got, want)
	}
}

func TestExtractGeminiText_空响应报错(t *testing.T) {
	cases := []string{
		`{"candidates":[]}`,
		`{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`,
		`{}`,
	}
	for _, body := range cases {
		if _, err := extractGeminiText([]byte(body)); err == nil {
			t.Errorf("body %q 应当报错", body)
		}
	}
}

func TestNewTextService_配置校验(t *testing.T) {
	if _, err := NewGeminiText(config.Config{}); err == nil {
		t.Fatal("缺少 API Key 应当报错")
	}
	if _, err := NewTextService(config.Config{TextProvider: "unknown"}); err == nil {
		t.Fatal("未知服务商应当报错")
	}
}
