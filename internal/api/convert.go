package api

import (
	"github.com/matheus3301/chatrise/internal/bus"
	"github.com/matheus3301/chatrise/internal/chatlist"
	"github.com/matheus3301/chatrise/internal/contacts"
	"github.com/matheus3301/chatrise/internal/messaging"
	"github.com/matheus3301/chatrise/internal/presence"
	"github.com/matheus3301/chatrise/internal/profile"
	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/store"
)

func profileToRPC(p *profile.Profile) *rpc.Profile {
	if p == nil {
		return nil
	}
	return &rpc.Profile{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		Description: p.Description,
		AvatarURL:   p.AvatarURL,
		IsOnline:    p.IsOnline,
		LastSeen:    p.LastSeen,
		JoinedAt:    p.JoinedAt,
	}
}

// publicProfile hides fields only the owner may see.
func publicProfile(p *profile.Profile, callerID string) *rpc.Profile {
	out := profileToRPC(p)
	if out != nil && out.ID != callerID {
		out.Email = ""
	}
	return out
}

func relationshipToRPC(r contacts.Relationship) rpc.Relationship {
	return rpc.Relationship{State: string(r.State), RequestID: r.RequestID, InitiatorID: r.InitiatorID}
}

func attachmentToRPC(a *store.Attachment) *rpc.Attachment {
	if a == nil {
		return nil
	}
	return &rpc.Attachment{URL: a.URL, Name: a.Name, MimeType: a.MimeType}
}

func attachmentFromRPC(a *rpc.Attachment) *store.Attachment {
	if a == nil {
		return nil
	}
	return &store.Attachment{URL: a.URL, Name: a.Name, MimeType: a.MimeType}
}

func messageToRPC(m *messaging.Message) rpc.Message {
	return rpc.Message{
		ID:          m.ID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		RecipientID: m.RecipientID,
		Body:        m.Body,
		SentAt:      m.SentAt,
		IsRead:      m.IsRead,
		Kind:        string(m.Kind),
		Attachment:  attachmentToRPC(m.Attachment),
	}
}

func messagesToRPC(msgs []messaging.Message) *rpc.MessagesResponse {
	out := make([]rpc.Message, 0, len(msgs))
	for i := range msgs {
		out = append(out, messageToRPC(&msgs[i]))
	}
	return &rpc.MessagesResponse{Messages: out}
}

func chatToRPC(s *chatlist.Summary) rpc.ChatSummary {
	return rpc.ChatSummary{
		PartnerID:       s.PartnerID,
		PartnerName:     s.PartnerName,
		LastMessageBody: s.LastMessageBody,
		LastMessageAt:   s.LastMessageAt,
		UnreadCount:     s.UnreadCount,
		PartnerOnline:   s.PartnerOnline,
		PartnerLastSeen: s.PartnerLastSeen,
	}
}

// eventToRPC converts a bus event; ok is false for payloads not exposed
// on the wire.
func eventToRPC(evt bus.Event) (*rpc.Event, bool) {
	out := &rpc.Event{Kind: evt.Kind, Timestamp: evt.Timestamp.UnixMilli()}
	switch p := evt.Payload.(type) {
	case messaging.Message:
		m := messageToRPC(&p)
		out.Message = &m
	case messaging.ReadEvent:
		out.Read = &rpc.ReadEvent{RecipientID: p.RecipientID, SenderID: p.SenderID, Count: p.Count}
	case contacts.RequestEvent:
		out.Contact = &rpc.ContactEvent{RequestID: p.RequestID, FromID: p.FromID, ToID: p.ToID, ActorID: p.ActorID}
	case presence.Change:
		out.Presence = &rpc.PresenceEvent{UserID: p.UserID, Online: p.Online, LastSeen: p.LastSeen}
	default:
		return nil, false
	}
	return out, true
}
