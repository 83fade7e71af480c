// Package chat builds and posts Google Chat webhook payloads. Three message
// shapes are used: plain text for alerts and digests, classic cards for
// comment batches and cardsV2 for complaint and daily report messages.
package chat

// Payload is the top-level webhook message body. Exactly one of Text, Cards
// or CardsV2 is set.
type Payload struct {
	Text    string       `json:"text,omitempty"`
	Cards   []Card       `json:"cards,omitempty"`
	CardsV2 []CardV2Item `json:"cardsV2,omitempty"`
}

// Classic card format.

type Card struct {
	Header   *Header   `json:"header,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

type Header struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
}

type Section struct {
	Header  string   `json:"header,omitempty"`
	Widgets []Widget `json:"widgets,omitempty"`
}

type Widget struct {
	KeyValue      *KeyValue      `json:"keyValue,omitempty"`
	TextParagraph *TextParagraph `json:"textParagraph,omitempty"`
	DecoratedText *DecoratedText `json:"decoratedText,omitempty"`
}

type KeyValue struct {
	TopLabel         string `json:"topLabel,omitempty"`
	Content          string `json:"content"`
	ContentMultiline bool   `json:"contentMultiline,omitempty"`
	BottomLabel      string `json:"bottomLabel,omitempty"`
}

type TextParagraph struct {
	Text string `json:"text"`
}

// cardsV2 format.

type CardV2Item struct {
	CardID string `json:"cardId"`
	Card   Card   `json:"card"`
}

type DecoratedText struct {
	TopLabel  string `json:"topLabel,omitempty"`
	Text      string `json:"text"`
	WrapText  bool   `json:"wrapText,omitempty"`
	StartIcon *Icon  `json:"startIcon,omitempty"`
}

type Icon struct {
	KnownIcon string `json:"knownIcon,omitempty"`
}

// TextPayload wraps a plain text message.
func TextPayload(text string) Payload {
	return Payload{Text: text}
}
