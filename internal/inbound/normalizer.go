package inbound

import (
	"encoding/json"
	"strings"

	"leadchat_backend/platform/phone"
)

// Minimum digits for a usable phone number. Messaging channels deliver full
// international numbers; web forms accept shorter local input.
const (
	messagingMinDigits = 10
	formMinDigits      = 8
)

// DecodeMeta extracts normalized events from a Meta Cloud API webhook body.
// Non-text messages, unusable phone numbers, and malformed payloads all
// decode to zero events: the webhook acknowledges regardless of content.
func DecodeMeta(body []byte) []Event {
	var payload metaWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}

	var events []Event
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}

			for _, message := range change.Value.Messages {
				if message.Type != "text" {
					continue
				}

				digits := phone.Digits(message.From)
				if !phone.HasMinDigits(digits, messagingMinDigits) {
					continue
				}

				events = append(events, Event{
					Phone:    digits,
					Name:     names[message.From],
					Text:     message.Text.Body,
					Referral: message.Referral.Headline,
					Channel:  ChannelWhatsApp,
				})
			}
		}
	}

	return events
}

// DecodeAutomation extracts a normalized event from an automation webhook
// body. The platform sends probe notifications with the literal string
// "senderPhone" in the waId field or a testNotification flag; the second
// return reports a probe so the handler can acknowledge it as such. Probes
// and unusable payloads decode to a nil event without being an error.
func DecodeAutomation(body []byte) (*Event, bool) {
	var payload automationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}

	if payload.TestNotification || payload.WaID == "senderPhone" {
		return nil, true
	}

	digits := phone.Digits(payload.WaID)
	if !phone.HasMinDigits(digits, messagingMinDigits) {
		return nil, false
	}

	return &Event{
		Phone:    digits,
		Name:     payload.SenderName,
		Text:     payload.MessageText,
		Referral: payload.Referral,
		Channel:  ChannelAutomation,
	}, false
}

// Form field aliases. Different site builders post different field names
// for the same data, so each logical field accepts several keys.
var (
	formPhoneKeys    = []string{"phone", "telefono", "teléfono", "celular"}
	formNameKeys     = []string{"name", "nombre", "fullName", "full_name"}
	formMessageKeys  = []string{"message", "mensaje", "comentario", "comments"}
	formReferralKeys = []string{"ref", "referral", "utm_campaign", "campaign"}
)

// Placeholders for form fields left empty by the visitor.
const (
	formNamePlaceholder    = "Visitante web"
	formMessagePlaceholder = "Nuevo lead del formulario web"
)

// DecodeForm extracts a normalized event from a web form submission. The
// phone field is the only hard requirement; every other field falls back to
// a placeholder. A missing or too-short phone returns false.
func DecodeForm(body []byte) (Event, bool) {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return Event{}, false
	}

	digits := phone.Digits(formField(fields, formPhoneKeys))
	if !phone.HasMinDigits(digits, formMinDigits) {
		return Event{}, false
	}

	name := formField(fields, formNameKeys)
	if name == "" {
		name = formNamePlaceholder
	}
	text := formField(fields, formMessageKeys)
	if text == "" {
		text = formMessagePlaceholder
	}

	return Event{
		Phone:    digits,
		Name:     name,
		Text:     text,
		Referral: formField(fields, formReferralKeys),
		Channel:  ChannelForm,
	}, true
}

func formField(fields map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if value, ok := fields[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
