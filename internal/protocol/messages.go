package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ActorName       string `json:"actor_name"`
	ActorID         string `json:"actor_id,omitempty"` // resume an existing identity
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ActorID         string `json:"actor_id"`
	World           string `json:"world"`
}

// CHAT (client -> server): a raw chat line. The server matches it against the
// actor's pending question, if any.
type ChatMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Text            string `json:"text"`
}

// INTERACT (client -> server): the actor clicked a shop container. Pos is the
// integer block position; Action is "CREATE" or "TRADE". Item is what the
// actor holds and only matters for CREATE.
type InteractMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	World           string        `json:"world"`
	Pos             [3]int        `json:"pos"`
	Action          string        `json:"action"`
	Item            *InteractItem `json:"item,omitempty"`
}

type InteractItem struct {
	ID     string `json:"id"`
	Meta   string `json:"meta,omitempty"`
	Amount int    `json:"amount,omitempty"`
}

// NOTICE (server -> client): a localizable message id plus positional args.
// The server never renders text; clients own formatting.
type NoticeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	MessageID       string `json:"message_id"`
	Args            []any  `json:"args,omitempty"`
	Code            string `json:"code,omitempty"`
}
