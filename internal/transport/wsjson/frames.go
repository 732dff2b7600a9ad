package wsjson

// Frame is the envelope for every message crossing the socket, in either
// direction. Exactly one payload field is set, according to Type.
type Frame struct {
	Type     string        `json:"type"`
	Auth     *AuthData     `json:"auth,omitempty"`
	Message  *MessageData  `json:"message,omitempty"`
	Presence *PresenceData `json:"presence,omitempty"`
	Roster   []RosterData  `json:"roster,omitempty"`
	Room     *RoomData     `json:"room,omitempty"`
	Update   *RosterUpdate `json:"update,omitempty"`
}

// Frame types sent by the bot.
const (
	TypeAuth         = "auth"
	TypeMessage      = "message"
	TypePresence     = "presence"
	TypeRosterGet    = "roster_get"
	TypeRosterUpdate = "roster_update"
	TypeJoin         = "join"
	TypeLeave        = "leave"
	TypePing         = "ping"
)

// Frame types delivered by the server.
const (
	TypeSession = "session"
	TypeRoster  = "roster"
	TypePong    = "pong"
)

// AuthData introduces the bot to the server.
type AuthData struct {
	JID      string `json:"jid"`
	Password string `json:"password"`
}

// MessageData is a chat message. Kind is "chat" or "groupchat"; Room is set
// on inbound groupchat frames, Subject is honored on outbound ones.
type MessageData struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Room    string `json:"room,omitempty"`
	Body    string `json:"body"`
	Subject string `json:"subject,omitempty"`
	Kind    string `json:"kind"`
}

// PresenceData carries presence broadcasts and subscription handshakes.
type PresenceData struct {
	From string `json:"from,omitempty"`
	Kind string `json:"kind"`
}

// RosterData is one roster row in a TypeRoster frame.
type RosterData struct {
	JID          string `json:"jid"`
	Subscription string `json:"subscription"`
}

// RosterUpdate pushes a subscription change for one identity.
type RosterUpdate struct {
	JID          string `json:"jid"`
	Subscription string `json:"subscription"`
}

// RoomData names a room and the nickname to use in it.
type RoomData struct {
	Room string `json:"room"`
	Nick string `json:"nick"`
}
