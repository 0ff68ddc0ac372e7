package conversation

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeLogEmptyAndNil(t *testing.T) {
	if got := DecodeLog(nil); len(got) != 0 {
		t.Fatalf("expected empty log for nil input, got %v", got)
	}
	if got := DecodeLog([]byte("[]")); len(got) != 0 {
		t.Fatalf("expected empty log, got %v", got)
	}
	if got := DecodeLog([]byte("null")); len(got) != 0 {
		t.Fatalf("expected empty log for json null, got %v", got)
	}
}

func TestDecodeLogMalformedFallsBackToEmpty(t *testing.T) {
	cases := [][]byte{
		[]byte("{not json"),
		[]byte(`{"author":"client"}`),
		[]byte(`42`),
		[]byte(`"just a plain string"`),
	}
	for _, raw := range cases {
		if got := DecodeLog(raw); len(got) != 0 {
			t.Fatalf("input %s: expected empty log, got %v", raw, got)
		}
	}
}

func TestDecodeLogDoubleEncoded(t *testing.T) {
	inner := `[{"author":"client","body":"hola","timestamp":"2026-01-05T10:00:00Z","fromMe":false}]`
	wrapped, err := json.Marshal(inner)
	if err != nil {
		t.Fatal(err)
	}

	got := DecodeLog(wrapped)
	if len(got) != 1 {
		t.Fatalf("expected 1 message from double-encoded log, got %d", len(got))
	}
	if got[0].Body != "hola" || got[0].Author != AuthorClient {
		t.Fatalf("unexpected message: %+v", got[0])
	}
}

func TestAppendClientMessageIncrementsUnread(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	update := Append(nil, 2, Message{Author: AuthorClient, Body: "sigo interesado"}, now)

	if update.UnreadCount != 3 {
		t.Fatalf("expected unread 3, got %d", update.UnreadCount)
	}
	if update.LastMessageFrom != AuthorClient {
		t.Fatalf("expected lastMessageFrom client, got %q", update.LastMessageFrom)
	}
	if !update.LastUpdate.Equal(now) {
		t.Fatalf("expected lastUpdate %v, got %v", now, update.LastUpdate)
	}

	messages := DecodeLog(update.Chat)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0].FromMe {
		t.Fatal("client message must not be marked fromMe")
	}
}

func TestAppendAIReplyResetsUnread(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	existing := EncodeLog([]Message{
		{Author: AuthorClient, Body: "hola", Timestamp: now.Add(-time.Minute)},
	})

	update := Append(existing, 5, Message{Author: AuthorAI, Body: "¡Hola! ¿En qué te ayudo?"}, now)

	if update.UnreadCount != 0 {
		t.Fatalf("expected unread 0 after AI reply, got %d", update.UnreadCount)
	}
	if update.LastMessageFrom != AuthorAI {
		t.Fatalf("expected lastMessageFrom ai, got %q", update.LastMessageFrom)
	}

	messages := DecodeLog(update.Chat)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if !messages[1].FromMe {
		t.Fatal("AI message must be marked fromMe")
	}
}

func TestAppendDisplayNameAuthorIsOperatorRole(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	update := Append(nil, 3, Message{Author: "María López", Body: "buen día"}, now)

	if update.LastMessageFrom != AuthorOperator {
		t.Fatalf("expected lastMessageFrom operator, got %q", update.LastMessageFrom)
	}
	if update.UnreadCount != 0 {
		t.Fatalf("expected unread reset, got %d", update.UnreadCount)
	}

	messages := DecodeLog(update.Chat)
	if messages[0].Author != "María López" {
		t.Fatalf("expected display name kept as author, got %q", messages[0].Author)
	}
	if !messages[0].FromMe {
		t.Fatal("operator message must be marked fromMe")
	}
}

func TestAppendOnCorruptLogStartsFresh(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	update := Append([]byte("{broken"), 1, Message{Author: AuthorOperator, Body: "le llamo en breve"}, now)

	messages := DecodeLog(update.Chat)
	if len(messages) != 1 {
		t.Fatalf("expected corrupt history to be discarded, got %d messages", len(messages))
	}
	if update.UnreadCount != 0 {
		t.Fatalf("expected unread 0 after operator message, got %d", update.UnreadCount)
	}
}

func TestAppendFillsTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	update := Append(nil, 0, Message{Author: AuthorClient, Body: "hola"}, now)

	messages := DecodeLog(update.Chat)
	if !messages[0].Timestamp.Equal(now) {
		t.Fatalf("expected timestamp defaulted to now, got %v", messages[0].Timestamp)
	}
}
