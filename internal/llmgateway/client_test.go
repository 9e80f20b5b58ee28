package llmgateway

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractJSONBlock_FencedWithLang(t *testing.T) {
	text := "noise ```json\n{\"a\":1}\n``` tail"
	got := extractJSONBlock(text)
	if got != `{"a":1}` {
		t.Errorf("extractJSONBlock() = %q, want %q", got, `{"a":1}`)
	}
}

func TestExtractJSONBlock_FencedNoLang(t *testing.T) {
	text := "```\n{\"a\":2}\n```"
	got := extractJSONBlock(text)
	if got != `{"a":2}` {
		t.Errorf("extractJSONBlock() = %q, want %q", got, `{"a":2}`)
	}
}

func TestExtractJSONBlock_NoFence(t *testing.T) {
	text := `{"a":3}`
	got := extractJSONBlock(text)
	if got != `{"a":3}` {
		t.Errorf("extractJSONBlock() = %q, want %q", got, `{"a":3}`)
	}
}

func TestExtractScriptBundle_CollisionAndTrailingC(t *testing.T) {
	text := "```\npublic class A {\n}\n```\n" +
		"```\npublic class A {\n}\n```\n" +
		"```\npublic class BC {\n}\n```\n"

	bundle := extractScriptBundle(text, nil)

	if len(bundle) != 3 {
		t.Fatalf("len(bundle) = %d, want 3", len(bundle))
	}
	for _, name := range []string{"A", "A_1", "B"} {
		if _, ok := bundle[name]; !ok {
			t.Errorf("bundle missing key %q", name)
		}
	}

	decoded, err := base64.StdEncoding.DecodeString(bundle["B"])
	if err != nil {
		t.Fatalf("decode bundle[B]: %v", err)
	}
	if string(decoded) != "public class BC {\n}" {
		t.Errorf("decoded body = %q", string(decoded))
	}
}

func TestExtractScriptBundle_DropsBlockWithoutClass(t *testing.T) {
	text := "```\nno class here\n```\n```\npublic class Only {\n}\n```"
	bundle := extractScriptBundle(text, nil)

	if len(bundle) != 1 {
		t.Fatalf("len(bundle) = %d, want 1", len(bundle))
	}
	if _, ok := bundle["Only"]; !ok {
		t.Error("bundle missing key Only")
	}
}

func TestExtractScriptBundle_PartialClass(t *testing.T) {
	text := "```\npublic partial class ExitDoorC : MonoBehaviour {\n}\n```"
	bundle := extractScriptBundle(text, nil)

	if _, ok := bundle["ExitDoor"]; !ok {
		t.Errorf("bundle = %v, want key ExitDoor", bundle)
	}
}

func TestExtractScriptBundle_SingleLetterCNotStripped(t *testing.T) {
	text := "```\npublic class C {\n}\n```"
	bundle := extractScriptBundle(text, nil)

	if _, ok := bundle["C"]; !ok {
		t.Errorf("bundle = %v, want key C preserved", bundle)
	}
}

func TestExtractScriptBundle_Empty(t *testing.T) {
	bundle := extractScriptBundle("no fenced blocks here", nil)
	if len(bundle) != 0 {
		t.Errorf("len(bundle) = %d, want 0", len(bundle))
	}
}

func TestParseAnthropicFormat(t *testing.T) {
	body := []byte(`{"content":[{"text":"hello world"}]}`)
	got, err := parseAnthropicFormat(body)
	if err != nil {
		t.Fatalf("parseAnthropicFormat() error = %v", err)
	}
	if got != "hello world" {
		t.Errorf("parseAnthropicFormat() = %q, want %q", got, "hello world")
	}
}

func TestParseAnthropicFormat_Empty(t *testing.T) {
	body := []byte(`{"content":[]}`)
	if _, err := parseAnthropicFormat(body); err == nil {
		t.Error("parseAnthropicFormat() error = nil, want error for empty content")
	}
}

func TestGenerateScenario_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", got)
		}
		_, _ = w.Write([]byte(`{"content":[{"text":"prefix ` + "```json\\n" +
			`{\"scenario_data\":{\"theme\":\"t\"},\"object_instructions\":[]}` + "\\n```" + ` suffix"}]}`))
	}))
	defer srv.Close()

	c := New("test-key", 0, nil)
	c.apiURL = srv.URL

	scenario, err := c.GenerateScenario(context.Background(), "system prompt", map[string]string{"theme": "t"}, CallParams{Model: "m", MaxTokens: 10, Temperature: 0.5})
	if err != nil {
		t.Fatalf("GenerateScenario() error = %v", err)
	}
	if scenario.ScenarioData.Theme != "t" {
		t.Errorf("ScenarioData.Theme = %q, want %q", scenario.ScenarioData.Theme, "t")
	}
}

func TestGenerateScenario_NoAPIKey(t *testing.T) {
	c := New("", 0, nil)
	_, err := c.GenerateScenario(context.Background(), "prompt", map[string]string{}, CallParams{})
	if err == nil {
		t.Error("GenerateScenario() error = nil, want error for missing API key")
	}
}

func TestGenerateScripts_EmptyBundleIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"text":"no code blocks here"}]}`))
	}))
	defer srv.Close()

	c := New("test-key", 0, nil)
	c.apiURL = srv.URL

	_, err := c.GenerateScripts(context.Background(), "system prompt", map[string]string{}, CallParams{})
	if err == nil {
		t.Error("GenerateScripts() error = nil, want error for empty script bundle")
	}
}
