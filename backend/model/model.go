package model

// Frame kinds understood by this client. Anything else received on the wire
// is kept as-is and ignored.
const (
	KindRegister Kind = "register"
	KindUsers    Kind = "users"
	KindMessage  Kind = "message"
)

type Kind string

func (k Kind) Known() bool {
	switch k {
	case KindRegister, KindUsers, KindMessage:
		return true
	}
	return false
}

// Frame is one decoded unit exchanged with the chat server.
// Only the field matching Kind is meaningful.
type Frame struct {
	Kind    Kind
	User    string         // register
	Users   []string       // users
	Message *MessageRecord // message
}

func NewRegister(user string) Frame {
	return Frame{Kind: KindRegister, User: user}
}

func NewUsers(users []string) Frame {
	if users == nil {
		users = []string{}
	}
	return Frame{Kind: KindUsers, Users: users}
}

func NewMessage(from, message string) Frame {
	return Frame{Kind: KindMessage, Message: &MessageRecord{From: from, Message: message}}
}

// Ignored reports whether the frame carries a kind this client does not handle.
func (f Frame) Ignored() bool {
	return !f.Kind.Known()
}

// Envelope is the outer wire structure as it is encoded.
type Envelope struct {
	MessageType *string  `json:"messageType"`
	Data        *string  `json:"data"`
	DataArray   []string `json:"dataArray"`
}

// MessageRecord is carried JSON-encoded in Envelope.Data of message frames.
type MessageRecord struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

type RosterEntry struct {
	ID        string `json:"id"`
	AvatarURL string `json:"avatar_url"`
}

type ChatMessage struct {
	From string `json:"from"`
	Body string `json:"body"`
}

type Snapshot struct {
	Roster   []RosterEntry `json:"roster"`
	Messages []ChatMessage `json:"messages"`
}

// Change is the result of applying a frame to the session state.
type Change bool

const (
	Unchanged    Change = false
	StateChanged Change = true
)
