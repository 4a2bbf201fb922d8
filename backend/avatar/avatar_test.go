package avatar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	r := NewResolver("")

	assert.Equal(t, "https://avatars.dicebear.com/api/adventurer-neutral/alice.svg", r.Resolve("alice"))
	assert.Equal(t, r.Resolve("alice"), r.Resolve("alice"))
	assert.NotEqual(t, r.Resolve("alice"), r.Resolve("bob"))
	assert.Equal(t, "https://avatars.dicebear.com/api/adventurer-neutral/a%2Fb%20c.svg", r.Resolve("a/b c"))
	assert.NotEmpty(t, r.Resolve(""))
}

func TestResolveCustomTemplate(t *testing.T) {
	r := NewResolver("http://img.local/{id}/{id}.png")
	assert.Equal(t, "http://img.local/ghost/ghost.png", r.Resolve("ghost"))
}
