package gateway

import (
	"slices"
	"strconv"
	"sync"
)

// Permission bits relevant to the bot.
const (
	permAdministrator = 1 << 3
	permAddReactions  = 1 << 6

	permAll = int64(^uint64(0) >> 1)
)

type guildState struct {
	ownerID   string
	roles     map[string]int64
	selfRoles []string
}

type overwrite struct {
	id    string
	typ   int
	allow int64
	deny  int64
}

type channelState struct {
	guildID    string
	overwrites []overwrite
}

// PermissionCache tracks what the gateway reports about guilds, roles,
// the bot's own member and channel overwrites, and computes the bot's
// effective permissions per channel from them. It implements
// chat.PermissionSource.
//
// Channels the cache cannot resolve (DMs, channels of guilds it has not
// seen) are assumed permitted; the platform still rejects the request if
// that guess is wrong.
type PermissionCache struct {
	mu       sync.RWMutex
	selfID   string
	guilds   map[string]*guildState
	channels map[string]*channelState
}

// NewPermissionCache creates an empty cache.
func NewPermissionCache() *PermissionCache {
	return &PermissionCache{
		guilds:   make(map[string]*guildState),
		channels: make(map[string]*channelState),
	}
}

// CanAddReactions implements chat.PermissionSource.
func (c *PermissionCache) CanAddReactions(channelID string) bool {
	perms, known := c.Permissions(channelID)
	if !known {
		return true
	}
	return perms&permAddReactions != 0
}

// Permissions returns the bot's effective permission bitfield in a
// channel, and false when the channel cannot be resolved.
//
// Order: owner, then @everyone plus the bot's roles (administrator grants
// everything), then the channel's @everyone overwrite, the combined role
// overwrites, and finally the bot's member overwrite.
func (c *PermissionCache) Permissions(channelID string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ch, ok := c.channels[channelID]
	if !ok {
		return 0, false
	}
	g, ok := c.guilds[ch.guildID]
	if !ok {
		return 0, false
	}
	if c.selfID != "" && c.selfID == g.ownerID {
		return permAll, true
	}

	// The @everyone role shares the guild's id.
	perms := g.roles[ch.guildID]
	for _, id := range g.selfRoles {
		perms |= g.roles[id]
	}
	if perms&permAdministrator != 0 {
		return permAll, true
	}

	for _, ow := range ch.overwrites {
		if ow.id == ch.guildID {
			perms = perms&^ow.deny | ow.allow
		}
	}

	var allow, deny int64
	for _, ow := range ch.overwrites {
		if ow.typ == overwriteRole && ow.id != ch.guildID && slices.Contains(g.selfRoles, ow.id) {
			allow |= ow.allow
			deny |= ow.deny
		}
	}
	perms = perms&^deny | allow

	for _, ow := range ch.overwrites {
		if ow.typ == overwriteMember && c.selfID != "" && ow.id == c.selfID {
			perms = perms&^ow.deny | ow.allow
		}
	}
	return perms, true
}

// setSelf records the bot's own user id from READY.
func (c *PermissionCache) setSelf(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selfID = userID
}

// observeGuild replaces everything known about a guild.
func (c *PermissionCache) observeGuild(g guildData) {
	if g.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	st := &guildState{ownerID: g.OwnerID, roles: make(map[string]int64, len(g.Roles))}
	for _, r := range g.Roles {
		st.roles[r.ID] = parsePerms(r.Permissions)
	}
	for _, m := range g.Members {
		if m.User != nil && c.selfID != "" && m.User.ID == c.selfID {
			st.selfRoles = append([]string(nil), m.Roles...)
		}
	}
	c.guilds[g.ID] = st

	for _, ch := range g.Channels {
		if ch.GuildID == "" {
			ch.GuildID = g.ID
		}
		c.channels[ch.ID] = channelStateOf(ch)
	}
}

// forgetGuild drops a guild and its channels.
func (c *PermissionCache) forgetGuild(guildID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.guilds, guildID)
	for id, ch := range c.channels {
		if ch.guildID == guildID {
			delete(c.channels, id)
		}
	}
}

// observeChannel records a guild channel. DM channels are ignored.
func (c *PermissionCache) observeChannel(ch channelData) {
	if ch.ID == "" || ch.GuildID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[ch.ID] = channelStateOf(ch)
}

func (c *PermissionCache) forgetChannel(channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.channels, channelID)
}

func (c *PermissionCache) observeRole(guildID string, r roleData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.guilds[guildID]; ok {
		g.roles[r.ID] = parsePerms(r.Permissions)
	}
}

func (c *PermissionCache) forgetRole(guildID, roleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.guilds[guildID]; ok {
		delete(g.roles, roleID)
	}
}

// observeMember records the bot's roles. Other members are ignored.
func (c *PermissionCache) observeMember(guildID, userID string, roles []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selfID == "" || userID != c.selfID {
		return
	}
	if g, ok := c.guilds[guildID]; ok {
		g.selfRoles = append([]string(nil), roles...)
	}
}

func channelStateOf(ch channelData) *channelState {
	st := &channelState{guildID: ch.GuildID, overwrites: make([]overwrite, 0, len(ch.Overwrites))}
	for _, ow := range ch.Overwrites {
		st.overwrites = append(st.overwrites, overwrite{
			id:    ow.ID,
			typ:   ow.Type,
			allow: parsePerms(ow.Allow),
			deny:  parsePerms(ow.Deny),
		})
	}
	return st
}

// parsePerms reads a decimal bitfield; malformed or empty means none.
func parsePerms(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
