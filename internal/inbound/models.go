// Package inbound normalizes messages from every entry channel into a
// single event shape before lead resolution.
package inbound

// Channel names attached to normalized events.
const (
	ChannelWhatsApp   = "whatsapp"
	ChannelAutomation = "automation"
	ChannelForm       = "form"
)

// Event is a channel-agnostic inbound message. Phone is digits-only.
type Event struct {
	Phone    string
	Name     string
	Text     string
	Referral string
	Channel  string
}

// metaWebhookPayload mirrors the Meta Cloud API webhook envelope. Only the
// fields this system reads are declared.
type metaWebhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
					Referral struct {
						Headline   string `json:"headline"`
						SourceURL  string `json:"source_url"`
						SourceType string `json:"source_type"`
					} `json:"referral"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// automationPayload is the body posted by the chat-automation platform.
type automationPayload struct {
	WaID             string `json:"waId"`
	SenderName       string `json:"senderName"`
	MessageText      string `json:"messageText"`
	Referral         string `json:"referral"`
	TestNotification bool   `json:"testNotification"`
}
