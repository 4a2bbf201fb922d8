// Package content turns raw message bodies into something a view can render.
package content

import "strings"

const (
	KindText  = "text"
	KindImage = "image"

	imageSuffix = ".gif"
)

// Emojis is the picker palette, in display order.
var Emojis = []string{
	"😀", "😂", "😍", "🔥", "👍", "❤️", "🎉", "🤔", "👏", "🙌", "😎", "🤩", "🥳", "😊", "🤗",
}

// Single left-to-right pass: produced glyphs are never rescanned.
var glyphs = strings.NewReplacer(
	":senyum:", "😊",
	":hati:", "❤️",
)

type Descriptor struct {
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
	URL   string `json:"url,omitempty"`
}

func Transform(body string) Descriptor {
	if strings.HasSuffix(body, imageSuffix) {
		return Descriptor{Kind: KindImage, URL: body}
	}
	return Descriptor{Kind: KindText, Value: glyphs.Replace(body)}
}
