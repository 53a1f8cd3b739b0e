package pubsub

import "testing"

type recordingSink struct {
	frames [][]string
}

func (r *recordingSink) Send(fields ...string) error {
	r.frames = append(r.frames, fields)
	return nil
}

func TestSubscribeAndPublish(t *testing.T) {
	m := NewManager()
	sink := &recordingSink{}

	count := m.Subscribe("conn1", sink, "news")
	if count != 1 {
		t.Fatalf("Subscribe count = %d, want 1", count)
	}

	recipients := m.Publish("news", "hello")
	if recipients != 1 {
		t.Fatalf("Publish recipients = %d, want 1", recipients)
	}
	if len(sink.frames) != 1 || sink.frames[0][0] != "message" {
		t.Fatalf("frames = %v, want one message frame", sink.frames)
	}
}

func TestPatternSubscribeMatchesGlob(t *testing.T) {
	m := NewManager()
	sink := &recordingSink{}
	m.PSubscribe("conn1", sink, "news.*")

	recipients := m.Publish("news.sports", "score")
	if recipients != 1 {
		t.Fatalf("Publish recipients = %d, want 1", recipients)
	}
	if sink.frames[0][0] != "pmessage" || sink.frames[0][1] != "news.*" {
		t.Fatalf("frame = %v, want pmessage with pattern", sink.frames[0])
	}

	recipients = m.Publish("weather", "rain")
	if recipients != 0 {
		t.Fatalf("Publish non-matching = %d, want 0", recipients)
	}
}

func TestUnsubscribeWithoutArgsViaChannelsList(t *testing.T) {
	m := NewManager()
	sink := &recordingSink{}
	m.Subscribe("conn1", sink, "a")
	m.Subscribe("conn1", sink, "b")

	channels := m.Channels("conn1")
	if len(channels) != 2 {
		t.Fatalf("Channels = %v, want 2", channels)
	}
	for _, c := range channels {
		m.Unsubscribe("conn1", c)
	}
	if remaining := m.Channels("conn1"); len(remaining) != 0 {
		t.Fatalf("Channels after full unsubscribe = %v, want empty", remaining)
	}
}

func TestRemoveConnectionClearsAllSubscriptions(t *testing.T) {
	m := NewManager()
	sink := &recordingSink{}
	m.Subscribe("conn1", sink, "a")
	m.PSubscribe("conn1", sink, "p*")

	m.RemoveConnection("conn1")

	if n := m.Publish("a", "x"); n != 0 {
		t.Fatalf("Publish after RemoveConnection = %d, want 0", n)
	}
	if n := m.Publish("px", "x"); n != 0 {
		t.Fatalf("Publish pattern after RemoveConnection = %d, want 0", n)
	}
}
