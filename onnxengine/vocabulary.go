package onnxengine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"

	"github.com/scriptmaster/modelserve/modelcore"
)

// Vocabulary wraps a sugarme/tokenizer instance plus the chat template
// used to flatten a ChatMessage transcript into prompt text, and
// speaks modelcore.Value at its public boundary.
type Vocabulary struct {
	tok      *tokenizer.Tokenizer
	chatTmpl chatTemplateRenderer
}

// AutoVocabulary is the HF-style static dispatcher:
//
//	vocab, err := AutoVocabulary.FromPretrained(modelID)
type autoVocabulary struct{}

var AutoVocabulary autoVocabulary

// FromPretrained downloads tokenizer.json (and best-effort auxiliary
// files) plus a chat template for modelID.
func (autoVocabulary) FromPretrained(modelID string) (*Vocabulary, error) {
	tokenizerPath, err := HFHubDownload(modelID, "tokenizer.json")
	if err != nil {
		return nil, err
	}

	_, _ = HFHubEnsureOptionalFiles(modelID, modelFilesList([]string{
		"tokenizer_config.json",
		"special_tokens_map.json",
		"vocab.json",
		"merges.txt",
	}))

	sanitizedPath, err := sanitizeTokenizerJSON(tokenizerPath)
	if err != nil {
		return nil, err
	}

	tok, err := pretrained.FromFile(sanitizedPath)
	if err != nil {
		return nil, fmt.Errorf("onnxengine: AutoVocabulary: %w", err)
	}

	chatTmpl, err := loadChatTemplate(modelID)
	if err != nil {
		return nil, err
	}

	return &Vocabulary{tok: tok, chatTmpl: chatTmpl}, nil
}

// Encode turns plain text into token IDs.
func (v *Vocabulary) Encode(text string, addSpecialTokens bool) ([]int64, error) {
	enc, err := v.tok.EncodeSingle(text, addSpecialTokens)
	if err != nil {
		return nil, err
	}
	ids := enc.Ids
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out, nil
}

// Decode turns token IDs back into plain text.
func (v *Vocabulary) Decode(ids []int64) (string, error) {
	uids := make([]int, len(ids))
	for i, id := range ids {
		uids[i] = int(id)
	}
	return v.tok.Decode(uids, true), nil
}

// BatchDecode decodes a batch of ID sequences.
func (v *Vocabulary) BatchDecode(batch [][]int64) ([]string, error) {
	out := make([]string, len(batch))
	for i, seq := range batch {
		txt, err := v.Decode(seq)
		if err != nil {
			return nil, err
		}
		out[i] = txt
	}
	return out, nil
}

// renderChatTemplate is the built-in fallback used when no chat
// template could be compiled, or the compiled one fails to render or
// renders empty text: a flat "Role: content" transcript always ending
// in a bare "Assistant:" cue.
func (v *Vocabulary) renderChatTemplate(messages []ChatMessage) (string, error) {
	var b strings.Builder
	for _, m := range messages {
		if m.Role == RoleSystem {
			b.WriteString("System: ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
	}
	for _, m := range messages {
		if m.Role == RoleSystem {
			continue
		}
		role := "User"
		if m.Role == RoleAssistant {
			role = "Assistant"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String(), nil
}

// EncodeChat renders messages through the jinja chat template (or the
// built-in fallback, if the template isn't available or errors) and
// encodes the result into a single-row batch.
func (v *Vocabulary) EncodeChat(messages []ChatMessage) (inputIDs [][]int64, attentionMask [][]int64, promptLen int, rawText string, err error) {
	rawText, err = v.renderViaTemplate(messages)
	if err != nil {
		return nil, nil, 0, "", err
	}
	ids, err := v.Encode(rawText, true)
	if err != nil {
		return nil, nil, 0, "", err
	}
	attn := make([]int64, len(ids))
	for i := range attn {
		attn[i] = 1
	}
	return [][]int64{ids}, [][]int64{attn}, len(ids), rawText, nil
}

func (v *Vocabulary) renderViaTemplate(messages []ChatMessage) (string, error) {
	if v.chatTmpl != nil {
		if text, err := v.chatTmpl(messages); err == nil && text != "" {
			return text, nil
		}
	}
	return v.renderChatTemplate(messages)
}

func (v *Vocabulary) Info() string {
	return fmt.Sprintf("Vocabulary(vocab=%d)", v.tok.GetVocabSize(true))
}

// TruncateAtStops trims generated text at the first occurrence of any
// stop sequence and removes surrounding whitespace, the way a caller
// turns Module.Forward's raw token-id output (decoded via Decode)
// into a final assistant reply.
func TruncateAtStops(s string, stops []string) string {
	out := s
	for _, stop := range stops {
		if stop == "" {
			continue
		}
		if idx := strings.Index(out, stop); idx >= 0 {
			out = out[:idx]
		}
	}
	return strings.TrimSpace(out)
}

// PromptValue renders messages through the chat template, encodes the
// result, and wraps the resulting token ids as a modelcore.Value
// List(Int...) — the prompt form a causal-LM Model's Input carries.
func (v *Vocabulary) PromptValue(messages []ChatMessage) (modelcore.Value, error) {
	inputIDs, _, _, _, err := v.EncodeChat(messages)
	if err != nil {
		return modelcore.Value{}, err
	}
	return TokenIDsToValue(inputIDs[0]), nil
}

// TokenIDsToValue wraps a token id sequence as a modelcore.Value
// List(Int...).
func TokenIDsToValue(ids []int64) modelcore.Value {
	items := make([]modelcore.Value, len(ids))
	for i, id := range ids {
		items[i] = modelcore.Int(id)
	}
	return modelcore.List(items...)
}

// ValueToTokenIDs unwraps a modelcore.Value List(Int...) back into a
// token id sequence.
func ValueToTokenIDs(v modelcore.Value) ([]int64, error) {
	if v.Kind != modelcore.KindList {
		return nil, fmt.Errorf("onnxengine: token id value must be a List, got %s", v.Kind)
	}
	ids := make([]int64, len(v.Items()))
	for i, item := range v.Items() {
		if item.Kind != modelcore.KindInt {
			return nil, fmt.Errorf("onnxengine: token id list element must be Int, got %s", item.Kind)
		}
		ids[i] = item.IntValue()
	}
	return ids, nil
}

// sanitizeTokenizerJSON rewrites a couple of negative-lookahead regex
// patterns HF tokenizers ship that Go's RE2 engine cannot parse, and
// writes the result alongside the original.
func sanitizeTokenizerJSON(origPath string) (string, error) {
	raw, err := os.ReadFile(origPath)
	if err != nil {
		return "", err
	}

	content := string(raw)
	content = strings.ReplaceAll(content, `\s+(?!\S)`, `\s+`)
	content = strings.ReplaceAll(content, `\\s+(?!\\S)`, `\\s+`)

	dir := filepath.Dir(origPath)
	sanitizedPath := filepath.Join(dir, "tokenizer_sanitized.json")
	if err := os.WriteFile(sanitizedPath, []byte(content), 0o644); err != nil {
		return "", err
	}
	return sanitizedPath, nil
}

// modelFilesList returns defaults, overridden wholesale by the
// comma-separated MODEL_FILES env var when set.
func modelFilesList(defaults []string) []string {
	val := os.Getenv("MODEL_FILES")
	if val == "" {
		return defaults
	}
	parts := strings.Split(val, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaults
	}
	return out
}
