package codec

import (
	"testing"

	"github.com/adwski/chat-client/backend/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		frame model.Frame
		want  string
	}{
		{
			name:  "register",
			frame: model.NewRegister("alice"),
			want:  `{"messageType":"register","data":"alice","dataArray":null}`,
		},
		{
			name:  "users",
			frame: model.NewUsers([]string{"alice", "bob"}),
			want:  `{"messageType":"users","data":null,"dataArray":["alice","bob"]}`,
		},
		{
			name:  "users without list",
			frame: model.Frame{Kind: model.KindUsers},
			want:  `{"messageType":"users","data":null,"dataArray":[]}`,
		},
		{
			name:  "message",
			frame: model.NewMessage("bob", "hi :hati:"),
			want:  `{"messageType":"message","data":"{\"from\":\"bob\",\"message\":\"hi :hati:\"}","dataArray":null}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(tt.frame)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))

			again, err := Encode(tt.frame)
			require.NoError(t, err)
			assert.Equal(t, b, again)
		})
	}
}

func TestEncodeRejects(t *testing.T) {
	_, err := Encode(model.Frame{Kind: "bogus"})
	assert.ErrorIs(t, err, ErrUnsupportedKind)

	_, err = Encode(model.Frame{Kind: model.KindMessage})
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestRoundTrip(t *testing.T) {
	frames := []model.Frame{
		model.NewRegister("alice"),
		model.NewRegister(""),
		model.NewUsers([]string{"a", "b", "c", "a"}),
		model.NewUsers([]string{}),
		model.NewUsers(nil),
		model.NewMessage("bob", "hi"),
		model.NewMessage("", `quotes " and {braces}`),
		model.NewMessage("карл", "party.gif"),
	}
	for _, f := range frames {
		b, err := Encode(f)
		require.NoError(t, err)
		got, err := Decode(b)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{"messageType":`},
		{"not an object", `["users"]`},
		{"null", `null`},
		{"missing discriminant", `{"data":"alice"}`},
		{"discriminant not a string", `{"messageType":3}`},
		{"register without data", `{"messageType":"register","dataArray":null}`},
		{"register with null data", `{"messageType":"register","data":null}`},
		{"users without list", `{"messageType":"users","data":null}`},
		{"users with scalar", `{"messageType":"users","dataArray":"alice"}`},
		{"users with numbers", `{"messageType":"users","dataArray":[1,2]}`},
		{"users with null element", `{"messageType":"users","dataArray":["alice",null]}`},
		{"users with null list", `{"messageType":"users","dataArray":null}`},
		{"register with object data", `{"messageType":"register","data":{"who":"bob"}}`},
		{"message with bool data", `{"messageType":"message","data":true}`},
		{"message without data", `{"messageType":"message"}`},
		{"message with bad inner json", `{"messageType":"message","data":"not json"}`},
		{"message inner without from", `{"messageType":"message","data":"{\"message\":\"hi\"}"}`},
		{"message inner without message", `{"messageType":"message","data":"{\"from\":\"bob\"}"}`},
		{"message inner wrong type", `{"messageType":"message","data":"{\"from\":1,\"message\":\"hi\"}"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			assert.ErrorIs(t, err, ErrMalformedFrame)
		})
	}
}

func TestDecodeUnknownKindIsIgnored(t *testing.T) {
	tests := []struct {
		in   string
		kind model.Kind
	}{
		{`{"messageType":"bogus"}`, "bogus"},
		{`{"messageType":"typing","data":{"who":"bob"}}`, "typing"},
		{`{"messageType":"typing","dataArray":[1,2]}`, "typing"},
		{`{"messageType":"typing","data":true}`, "typing"},
		{`{"messageType":"presence","data":"x","dataArray":[null]}`, "presence"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.True(t, f.Ignored())
			assert.Equal(t, tt.kind, f.Kind)
		})
	}
}

func TestDecodeWireExample(t *testing.T) {
	f, err := Decode([]byte(`{"messageType":"message","data":"{\"from\":\"bob\",\"message\":\"hi :hati:\"}","dataArray":null}`))
	require.NoError(t, err)
	assert.Equal(t, model.NewMessage("bob", "hi :hati:"), f)

	f, err = Decode([]byte(`{"messageType":"users","dataArray":["alice","bob"],"data":null}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, f.Users)
}
