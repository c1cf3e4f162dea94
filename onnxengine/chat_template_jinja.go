package onnxengine

import (
	"os"

	pongo "github.com/flosch/pongo2/v6"
)

// chatTemplateRenderer turns a chat transcript into the flat prompt
// text fed to the tokenizer.
type chatTemplateRenderer func([]ChatMessage) (string, error)

// loadChatTemplate fetches chat_template.jinja from the Hub (best
// effort) and compiles it with pongo2, falling back to
// defaultChatTemplateJinja when the repo doesn't ship one or the
// template fails to parse.
func loadChatTemplate(modelID string) (chatTemplateRenderer, error) {
	raw := []byte(defaultChatTemplateJinja)

	if paths, err := HFHubEnsureOptionalFiles(modelID, []string{"chat_template.jinja"}); err == nil {
		if path, ok := paths["chat_template.jinja"]; ok {
			if b, err := os.ReadFile(path); err == nil && len(b) > 0 {
				raw = b
			}
		}
	}

	tpl, err := pongo.FromString(string(raw))
	if err != nil {
		tpl, err = pongo.FromString(defaultChatTemplateJinja)
		if err != nil {
			return nil, nil
		}
	}

	renderer := func(msgs []ChatMessage) (string, error) {
		jmsgs := make([]map[string]any, 0, len(msgs))
		for _, m := range msgs {
			jmsgs = append(jmsgs, map[string]any{
				"role":    string(m.Role),
				"content": m.Content,
			})
		}
		return tpl.Execute(pongo.Context{
			"messages":              jmsgs,
			"add_generation_prompt": true,
		})
	}
	return renderer, nil
}

// defaultChatTemplateJinja mirrors the minimal LFM2-style turn format
// used when a repo ships no chat_template.jinja of its own.
const defaultChatTemplateJinja = `{% for message in messages %}
{% if message.role == "system" %}{{ message.content }}
{% elif message.role == "user" %}User: {{ message.content }}
{% elif message.role == "assistant" %}Assistant: {{ message.content }}
{% endif %}{% endfor %}{% if add_generation_prompt %}Assistant:{% endif %}`
