package gateway

import (
	"encoding/json"

	"github.com/roach88/missy/internal/chat"
)

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

// Gateway intents.
const (
	intentGuilds                = 1 << 0
	intentGuildMessages         = 1 << 9
	intentGuildMessageReactions = 1 << 10
	intentDirectMessages        = 1 << 12
	intentMessageContent        = 1 << 15

	DefaultIntents = intentGuilds | intentGuildMessages | intentGuildMessageReactions |
		intentDirectMessages | intentMessageContent
)

// Dispatch event names.
const (
	eventReady         = "READY"
	eventMessageCreate = "MESSAGE_CREATE"
	eventReactionAdd   = "MESSAGE_REACTION_ADD"
	eventGuildCreate   = "GUILD_CREATE"
	eventGuildDelete   = "GUILD_DELETE"
	eventRoleCreate    = "GUILD_ROLE_CREATE"
	eventRoleUpdate    = "GUILD_ROLE_UPDATE"
	eventRoleDelete    = "GUILD_ROLE_DELETE"
	eventMemberUpdate  = "GUILD_MEMBER_UPDATE"
	eventChannelCreate = "CHANNEL_CREATE"
	eventChannelUpdate = "CHANNEL_UPDATE"
	eventChannelDelete = "CHANNEL_DELETE"
)

// Permission overwrite targets.
const (
	overwriteRole   = 0
	overwriteMember = 1
)

type frame struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string            `json:"token"`
	Intents    int               `json:"intents"`
	Properties map[string]string `json:"properties"`
}

type readyData struct {
	SessionID string    `json:"session_id"`
	User      chat.User `json:"user"`
}

type emojiData struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// String renders the emoji as reactions are compared: the character for
// unicode emoji, name:id for custom ones.
func (e emojiData) String() string {
	if e.ID != "" {
		return e.Name + ":" + e.ID
	}
	return e.Name
}

type reactionData struct {
	UserID    string    `json:"user_id"`
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id"`
	GuildID   string    `json:"guild_id,omitempty"`
	Emoji     emojiData `json:"emoji"`
}

// Permission bitfields travel as decimal strings.
type overwriteData struct {
	ID    string `json:"id"`
	Type  int    `json:"type"`
	Allow string `json:"allow"`
	Deny  string `json:"deny"`
}

type channelData struct {
	ID         string          `json:"id"`
	GuildID    string          `json:"guild_id,omitempty"`
	Overwrites []overwriteData `json:"permission_overwrites,omitempty"`
}

type roleData struct {
	ID          string `json:"id"`
	Permissions string `json:"permissions"`
}

type memberData struct {
	User  *chat.User `json:"user,omitempty"`
	Roles []string   `json:"roles"`
}

type guildData struct {
	ID       string        `json:"id"`
	OwnerID  string        `json:"owner_id"`
	Roles    []roleData    `json:"roles"`
	Members  []memberData  `json:"members"`
	Channels []channelData `json:"channels"`
}

type guildDeleteData struct {
	ID string `json:"id"`
}

type roleEventData struct {
	GuildID string   `json:"guild_id"`
	Role    roleData `json:"role"`
}

type roleDeleteData struct {
	GuildID string `json:"guild_id"`
	RoleID  string `json:"role_id"`
}

type memberUpdateData struct {
	GuildID string    `json:"guild_id"`
	User    chat.User `json:"user"`
	Roles   []string  `json:"roles"`
}
