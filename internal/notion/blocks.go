package notion

import "encoding/json"

type jsonRaw = json.RawMessage

func (b *blockObject) UnmarshalJSON(data []byte) error {
	type header struct {
		ID          string `json:"id"`
		Type        string `json:"type"`
		HasChildren bool   `json:"has_children"`
	}
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	b.ID = h.ID
	b.Type = h.Type
	b.HasChildren = h.HasChildren

	var m map[string]jsonRaw
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	b.raw = m
	return nil
}

// payload decodes the type-named body of the block. Every text-bearing block
// type (paragraph, headings, list items, to_do, quote, callout, toggle)
// shares the rich_text field; unknown types simply decode to nothing.
func (b *blockObject) payload() (richTexts []richText, ok bool) {
	body, exists := b.raw[b.Type]
	if !exists {
		return nil, false
	}
	var p struct {
		RichText []richText `json:"rich_text"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, false
	}
	return p.RichText, len(p.RichText) > 0
}

func (b *blockObject) text() string {
	rts, ok := b.payload()
	if !ok {
		return ""
	}
	return joinPlainText(rts)
}

func (b *blockObject) mentionedUsers() []string {
	rts, ok := b.payload()
	if !ok {
		return nil
	}
	var ids []string
	for _, rt := range rts {
		if rt.Mention != nil && rt.Mention.User != nil && rt.Mention.User.ID != "" {
			ids = append(ids, rt.Mention.User.ID)
		}
	}
	return ids
}

func joinPlainText(rts []richText) string {
	out := ""
	for _, rt := range rts {
		out += rt.PlainText
	}
	return out
}
