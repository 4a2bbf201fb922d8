package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransform(t *testing.T) {
	tests := []struct {
		body string
		want Descriptor
	}{
		{"party.gif", Descriptor{Kind: KindImage, URL: "party.gif"}},
		{"https://media.example/x.gif", Descriptor{Kind: KindImage, URL: "https://media.example/x.gif"}},
		{".gif", Descriptor{Kind: KindImage, URL: ".gif"}},
		{"party.GIF", Descriptor{Kind: KindText, Value: "party.GIF"}},
		{"party.gif ", Descriptor{Kind: KindText, Value: "party.gif "}},
		{"hello :senyum:", Descriptor{Kind: KindText, Value: "hello 😊"}},
		{"hi :hati:", Descriptor{Kind: KindText, Value: "hi ❤️"}},
		{":hati::hati: and :senyum:", Descriptor{Kind: KindText, Value: "❤️❤️ and 😊"}},
		{":senyum", Descriptor{Kind: KindText, Value: ":senyum"}},
		{"::hati::", Descriptor{Kind: KindText, Value: ":❤️:"}},
		{":hati:senyum:", Descriptor{Kind: KindText, Value: "❤️senyum:"}},
		{":senyum:hati:", Descriptor{Kind: KindText, Value: "😊hati:"}},
		{"", Descriptor{Kind: KindText}},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, Transform(tt.body))
		})
	}
}

func TestEmojis(t *testing.T) {
	assert.Len(t, Emojis, 15)
	assert.Contains(t, Emojis, "❤️")
}
