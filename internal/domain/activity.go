package domain

// ActivityType identifies the kind of inbound activity.
type ActivityType string

const (
	ActivityMessage            ActivityType = "message"
	ActivityConversationUpdate ActivityType = "conversationUpdate"
)

// ChannelAccount identifies a participant in a conversation.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ConversationAccount identifies a conversation.
type ConversationAccount struct {
	ID string `json:"id"`
}

// Activity is the inbound envelope delivered by a channel. The JSON shape
// follows the Bot Framework activity schema.
type Activity struct {
	Type           ActivityType        `json:"type"`
	ID             string              `json:"id,omitempty"`
	ChannelID      string              `json:"channelId,omitempty"`
	Conversation   ConversationAccount `json:"conversation"`
	From           ChannelAccount      `json:"from"`
	Recipient      ChannelAccount      `json:"recipient"`
	Text           string              `json:"text,omitempty"`
	MembersAdded   []ChannelAccount    `json:"membersAdded,omitempty"`
	MembersRemoved []ChannelAccount    `json:"membersRemoved,omitempty"`
}

// ReplyKind distinguishes plain messages from prompts.
type ReplyKind string

const (
	ReplyMessage      ReplyKind = "message"
	ReplyChoicePrompt ReplyKind = "choicePrompt"
	ReplyTextPrompt   ReplyKind = "textPrompt"
)

// Reply is a single outbound activity produced during a turn.
type Reply struct {
	Kind           ReplyKind       `json:"kind"`
	Text           string          `json:"text"`
	Choices        []string        `json:"choices,omitempty"`
	ConversationID string          `json:"conversationId,omitempty"`
	Recipient      *ChannelAccount `json:"recipient,omitempty"`
}
