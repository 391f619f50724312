package whatsapp

// InboundMessage is one of TextMessage, ListReply or Unsupported.
type InboundMessage interface {
	Sender() string
	inbound()
}

// TextMessage is a plain text message typed by the user.
type TextMessage struct {
	From      string
	MessageID string
	Body      string
}

// ListReply is the user's pick from an interactive list.
type ListReply struct {
	From      string
	MessageID string
	RowID     string
	Title     string
}

// Unsupported covers every other message shape (images, buttons, reactions...).
type Unsupported struct {
	From      string
	MessageID string
	Type      string
}

func (m TextMessage) Sender() string { return m.From }
func (m ListReply) Sender() string   { return m.From }
func (m Unsupported) Sender() string { return m.From }

func (TextMessage) inbound() {}
func (ListReply) inbound()   {}
func (Unsupported) inbound() {}

// FirstMessage returns entry[0].changes[0].value.messages[0] as a typed
// InboundMessage. ok is false when the delivery carries no message
// (status updates, empty envelopes).
func FirstMessage(p WebhookPayload) (msg InboundMessage, ok bool) {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return nil, false
	}
	messages := p.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		return nil, false
	}
	return ParseMessage(messages[0]), true
}

// ParseMessage converts a raw webhook message into its variant.
func ParseMessage(m Message) InboundMessage {
	switch m.Type {
	case "text":
		if m.Text != nil {
			return TextMessage{From: m.From, MessageID: m.ID, Body: m.Text.Body}
		}
	case "interactive":
		if m.Interactive != nil && m.Interactive.Type == "list_reply" && m.Interactive.ListReply != nil {
			return ListReply{
				From:      m.From,
				MessageID: m.ID,
				RowID:     m.Interactive.ListReply.ID,
				Title:     m.Interactive.ListReply.Title,
			}
		}
		if m.Interactive != nil && m.Interactive.Type != "" {
			return Unsupported{From: m.From, MessageID: m.ID, Type: "interactive/" + m.Interactive.Type}
		}
	}
	return Unsupported{From: m.From, MessageID: m.ID, Type: m.Type}
}
