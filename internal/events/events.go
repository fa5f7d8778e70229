// Package events maps application event kinds to notification content.
//
// This is the only real business logic in the relay: callers post structured
// fields (who did what to whom) and the registry composes the human-readable
// title and body, so mobile clients never format notification text themselves.
package events

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tinywideclouds/go-push-relay/pkg/dispatch"
)

// ErrUnknownKind is returned when a request names an event kind the registry
// does not define.
var ErrUnknownKind = errors.New("unknown event kind")

// Kind identifies one application event that produces a notification.
type Kind string

const (
	KindMessage               Kind = "message"
	KindFriendRequest         Kind = "friend-request"
	KindFriendRequestAccepted Kind = "friend-request-accepted"
	KindNewPost               Kind = "new-post"
	KindPostComment           Kind = "post-comment"
	KindPostReaction          Kind = "post-reaction"
	KindPostShare             Kind = "post-share"
	KindCommentReply          Kind = "comment-reply"
	KindCommentLike           Kind = "comment-like"
	KindGroupInvite           Kind = "group-invite"
	KindMention               Kind = "mention"
	KindVideoCall             Kind = "video-call"
)

// Fields is the raw key/value payload of a typed notify request.
type Fields map[string]string

// Definition describes one event kind: which field names the recipient, which
// fields must be present, which are echoed into the data payload, and how the
// title/body are composed.
type Definition struct {
	Recipient string
	Required  []string
	DataKeys  []string
	Compose   func(f Fields) (title, body string)
}

var registry = map[Kind]Definition{
	KindMessage: {
		Recipient: "recipientId",
		Required:  []string{"chatId", "senderId", "senderName", "text"},
		DataKeys:  []string{"chatId", "senderId"},
		Compose: func(f Fields) (string, string) {
			return f["senderName"], f["text"]
		},
	},
	KindFriendRequest: {
		Recipient: "recipientId",
		Required:  []string{"senderId", "senderName"},
		DataKeys:  []string{"senderId"},
		Compose: func(f Fields) (string, string) {
			return "New friend request", fmt.Sprintf("%s sent you a friend request", f["senderName"])
		},
	},
	KindFriendRequestAccepted: {
		Recipient: "recipientId",
		Required:  []string{"acceptorId", "acceptorName"},
		DataKeys:  []string{"acceptorId"},
		Compose: func(f Fields) (string, string) {
			return "Friend request accepted", fmt.Sprintf("%s accepted your friend request", f["acceptorName"])
		},
	},
	KindNewPost: {
		Recipient: "recipientId",
		Required:  []string{"postId", "userId", "userName"},
		DataKeys:  []string{"postId", "userId"},
		Compose: func(f Fields) (string, string) {
			return "New post", fmt.Sprintf("%s shared a new post", f["userName"])
		},
	},
	KindPostComment: {
		Recipient: "postOwnerId",
		Required:  []string{"postId", "commenterId", "commenterName", "commentText"},
		DataKeys:  []string{"postId", "commenterId"},
		Compose: func(f Fields) (string, string) {
			return "New comment", fmt.Sprintf("%s commented: %s", f["commenterName"], f["commentText"])
		},
	},
	KindPostReaction: {
		Recipient: "postOwnerId",
		Required:  []string{"postId", "reactorId", "reactorName", "reactionType"},
		DataKeys:  []string{"postId", "reactorId", "reactionType"},
		Compose: func(f Fields) (string, string) {
			return "New reaction", fmt.Sprintf("%s reacted %s to your post", f["reactorName"], f["reactionType"])
		},
	},
	KindPostShare: {
		Recipient: "postOwnerId",
		Required:  []string{"postId", "sharerId", "sharerName"},
		DataKeys:  []string{"postId", "sharerId"},
		Compose: func(f Fields) (string, string) {
			return "Post shared", fmt.Sprintf("%s shared your post", f["sharerName"])
		},
	},
	KindCommentReply: {
		Recipient: "commentOwnerId",
		Required:  []string{"postId", "replierId", "replierName", "replyText"},
		DataKeys:  []string{"postId", "replierId"},
		Compose: func(f Fields) (string, string) {
			return "New reply", fmt.Sprintf("%s replied: %s", f["replierName"], f["replyText"])
		},
	},
	KindCommentLike: {
		Recipient: "commentOwnerId",
		Required:  []string{"postId", "commentId", "likerId", "likerName"},
		DataKeys:  []string{"postId", "commentId", "likerId"},
		Compose: func(f Fields) (string, string) {
			return "Comment liked", fmt.Sprintf("%s liked your comment", f["likerName"])
		},
	},
	KindGroupInvite: {
		Recipient: "recipientId",
		Required:  []string{"groupId", "groupName", "inviterId", "inviterName"},
		DataKeys:  []string{"groupId", "inviterId"},
		Compose: func(f Fields) (string, string) {
			return "Group invite", fmt.Sprintf("%s invited you to join %s", f["inviterName"], f["groupName"])
		},
	},
	KindMention: {
		Recipient: "recipientId",
		Required:  []string{"mentionerId", "mentionerName", "type"},
		// postId/commentId identify where the mention happened; exactly one of
		// them is present depending on "type", so neither is required.
		DataKeys: []string{"mentionerId", "postId", "commentId"},
		Compose: func(f Fields) (string, string) {
			return "You were mentioned", fmt.Sprintf("%s mentioned you in a %s", f["mentionerName"], f["type"])
		},
	},
	KindVideoCall: {
		Recipient: "recipientId",
		Required:  []string{"callerId", "callerName", "roomId"},
		DataKeys:  []string{"callerId", "roomId"},
		Compose: func(f Fields) (string, string) {
			return "Incoming video call", fmt.Sprintf("%s is calling you", f["callerName"])
		},
	},
}

// Lookup returns the definition for a kind.
func Lookup(kind Kind) (Definition, bool) {
	def, ok := registry[kind]
	return def, ok
}

// Kinds returns every registered kind. Order is unspecified.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}

// BuildRequest turns a typed event payload into a dispatch request. It is a
// pure builder: no I/O, no state. The returned request carries the recipient
// id (never a raw token), the composed title/body, and a data payload holding
// the event kind under "type" plus the kind's echo fields.
func BuildRequest(kind Kind, f Fields) (dispatch.Request, error) {
	def, ok := registry[kind]
	if !ok {
		return dispatch.Request{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if blank(f[def.Recipient]) {
		return dispatch.Request{}, &dispatch.ValidationError{Field: def.Recipient}
	}
	for _, name := range def.Required {
		if blank(f[name]) {
			return dispatch.Request{}, &dispatch.ValidationError{Field: name}
		}
	}

	title, body := def.Compose(f)

	data := map[string]string{"type": string(kind)}
	for _, key := range def.DataKeys {
		if v := f[key]; v != "" {
			data[key] = v
		}
	}

	return dispatch.Request{
		RecipientID: f[def.Recipient],
		Title:       title,
		Body:        body,
		Data:        data,
	}, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
