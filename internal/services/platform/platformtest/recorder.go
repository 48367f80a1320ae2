// Package platformtest provides an in-memory Platform that records every call.
package platformtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MyelinBots/resellboost-go/internal/services/platform"
)

type Message struct {
	ID        string
	ChannelID string
	Content   string
}

type Timeout struct {
	UserID string
	Until  time.Time
	Reason string
}

// Recorder implements platform.Platform. Setting a Fail* field makes the matching calls fail.
type Recorder struct {
	mu sync.Mutex

	FailChannelMessages bool
	FailDirectMessages  bool
	FailCreateRole      bool
	FailCreateChannel   bool
	FailReactions       bool

	ChannelMessages []Message
	DirectMessages  []Message
	Deleted         []string
	Roles           map[string]map[string]bool
	CreatedRoles    map[string]string
	CreatedChannels map[string]string
	ChannelAccess   map[string]platform.Access
	Edited          map[string]string
	// Reactions maps "channel/msg" to the members who reacted, bots excluded.
	Reactions map[string][]string
	Timeouts  []Timeout

	seq int
}

var _ platform.Platform = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{
		Roles:           map[string]map[string]bool{},
		CreatedRoles:    map[string]string{},
		CreatedChannels: map[string]string{},
		ChannelAccess:   map[string]platform.Access{},
		Edited:          map[string]string{},
		Reactions:       map[string][]string{},
	}
}

func (r *Recorder) next(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *Recorder) SendChannelMessage(ctx context.Context, channelID, content string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailChannelMessages {
		return "", fmt.Errorf("send to %s: missing access", channelID)
	}
	id := r.next("msg")
	r.ChannelMessages = append(r.ChannelMessages, Message{ID: id, ChannelID: channelID, Content: content})
	return id, nil
}

func (r *Recorder) SendDirectMessage(ctx context.Context, userID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailDirectMessages {
		return fmt.Errorf("dm %s: cannot send messages to this user", userID)
	}
	r.DirectMessages = append(r.DirectMessages, Message{ChannelID: userID, Content: content})
	return nil
}

func (r *Recorder) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Edited[channelID+"/"+messageID] = content
	return nil
}

// AddReaction records nothing: the bot's own reaction never counts as an entry.
func (r *Recorder) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReactions {
		return fmt.Errorf("react on %s: missing permissions", messageID)
	}
	return nil
}

func (r *Recorder) ReactionUsers(ctx context.Context, channelID, messageID, emoji string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailReactions {
		return nil, fmt.Errorf("reactions of %s: unknown message", messageID)
	}
	return append([]string(nil), r.Reactions[channelID+"/"+messageID]...), nil
}

// React records userIDs as members who reacted to a message.
func (r *Recorder) React(channelID, messageID string, userIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := channelID + "/" + messageID
	r.Reactions[key] = append(r.Reactions[key], userIDs...)
}

func (r *Recorder) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deleted = append(r.Deleted, channelID+"/"+messageID)
	return nil
}

func (r *Recorder) AddRole(ctx context.Context, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Roles[userID] == nil {
		r.Roles[userID] = map[string]bool{}
	}
	r.Roles[userID][roleID] = true
	return nil
}

func (r *Recorder) RemoveRole(ctx context.Context, userID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Roles[userID], roleID)
	return nil
}

func (r *Recorder) CreateRole(ctx context.Context, name string, color int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreateRole {
		return "", fmt.Errorf("create role %s: missing permissions", name)
	}
	id := r.next("role")
	r.CreatedRoles[id] = name
	return id, nil
}

func (r *Recorder) EditRoleName(ctx context.Context, roleID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CreatedRoles[roleID] = name
	return nil
}

func (r *Recorder) DeleteRole(ctx context.Context, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.CreatedRoles, roleID)
	return nil
}

func (r *Recorder) CreatePrivateChannel(ctx context.Context, categoryID, name string, access platform.Access) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreateChannel {
		return "", fmt.Errorf("create channel %s: missing permissions", name)
	}
	id := r.next("chan")
	r.CreatedChannels[id] = name
	r.ChannelAccess[id] = access
	return id, nil
}

func (r *Recorder) EditChannelName(ctx context.Context, channelID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CreatedChannels[channelID] = name
	return nil
}

func (r *Recorder) DeleteChannel(ctx context.Context, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.CreatedChannels, channelID)
	return nil
}

func (r *Recorder) TimeoutMember(ctx context.Context, userID string, until time.Time, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Timeouts = append(r.Timeouts, Timeout{UserID: userID, Until: until, Reason: reason})
	return nil
}

func (r *Recorder) HasRole(userID, roleID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Roles[userID][roleID]
}

func (r *Recorder) DMsTo(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.DirectMessages {
		if m.ChannelID == userID {
			out = append(out, m.Content)
		}
	}
	return out
}

func (r *Recorder) MessagesIn(channelID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.ChannelMessages {
		if m.ChannelID == channelID {
			out = append(out, m.Content)
		}
	}
	return out
}

// LastMessageID returns the id of the latest message posted in channelID.
func (r *Recorder) LastMessageID(channelID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.ChannelMessages) - 1; i >= 0; i-- {
		if r.ChannelMessages[i].ChannelID == channelID {
			return r.ChannelMessages[i].ID
		}
	}
	return ""
}
