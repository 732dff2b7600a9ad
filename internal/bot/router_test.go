package bot

import (
	"reflect"
	"testing"

	"github.com/connectical/whistler/internal/transport"
)

func TestParseGroupCommand(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{name: "sigil command", body: "!ping", wantName: "ping", wantOK: true},
		{name: "sigil with args", body: "!echo hello world", wantName: "echo", wantArgs: []string{"hello", "world"}, wantOK: true},
		{name: "sigil with whitespace runs", body: "!echo   a \t b", wantName: "echo", wantArgs: []string{"a", "b"}, wantOK: true},
		{name: "bare sigil", body: "!", wantOK: false},
		{name: "comma addressing", body: "whistler, ping", wantName: "ping", wantOK: true},
		{name: "colon addressing", body: "whistler: echo hi", wantName: "echo", wantArgs: []string{"hi"}, wantOK: true},
		{name: "addressing without command", body: "whistler, ", wantOK: false},
		{name: "plain chatter", body: "hello everyone", wantOK: false},
		{name: "nick mentioned mid-sentence", body: "I think whistler, is a bot", wantOK: false},
		{name: "nick without separator", body: "whistler ping", wantOK: false},
		{name: "empty body", body: "", wantOK: false},
		{name: "leading whitespace disqualifies sigil", body: " !ping", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, ok := parseGroupCommand(tt.body, "!", "whistler")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if len(args) != len(tt.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs)) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestGroupChatterProducesNoDispatchAndNoReply(t *testing.T) {
	b, tr, _ := newTestBot(t, Options{})

	invoked := false
	b.RegisterCommand("ping", func(msg *Message, args []string) (string, bool) {
		invoked = true
		return "pong", true
	}, false)

	for _, body := range []string{"hello everyone", "ping", "whistler ping", "", "  !ping"} {
		tr.emit(t, groupMessage("alice@example.com/home", "room@conference.example.com", body))
	}

	if invoked {
		t.Fatal("handler invoked for non-command group chatter")
	}
	if got := tr.sentMessages(); len(got) != 0 {
		t.Fatalf("expected no sends, got %d", len(got))
	}
}

func TestEmptyDirectMessageIsIgnored(t *testing.T) {
	b, tr, _ := newTestBot(t, Options{})

	b.RegisterCommand("echo", func(msg *Message, args []string) (string, bool) {
		t.Fatal("handler invoked for empty body")
		return "", false
	}, false)

	tr.emit(t, directMessage("alice@example.com", ""))
	tr.emit(t, directMessage("alice@example.com", "   \t "))

	if got := tr.sentMessages(); len(got) != 0 {
		t.Fatalf("expected no sends, got %d", len(got))
	}
}

func TestDirectEchoDispatchesArgsAndReplies(t *testing.T) {
	b, tr, _ := newTestBot(t, Options{})

	var gotArgs []string
	b.RegisterCommand("echo", func(msg *Message, args []string) (string, bool) {
		gotArgs = args
		return args[0], true
	}, false)

	tr.emit(t, directMessage("alice@example.com/home", "echo hello"))

	if !reflect.DeepEqual(gotArgs, []string{"hello"}) {
		t.Fatalf("args = %v, want [hello]", gotArgs)
	}
	sent := tr.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(sent))
	}
	if sent[0].To != "alice@example.com/home" || sent[0].Body != "hello" || sent[0].Kind != transport.KindDirect {
		t.Fatalf("unexpected reply: %+v", sent[0])
	}
}

func TestGroupCommandRepliesToRoom(t *testing.T) {
	b, tr, _ := newTestBot(t, Options{})

	b.RegisterCommand("ping", func(msg *Message, args []string) (string, bool) {
		return "pong", true
	}, false)

	tr.emit(t, groupMessage("room@conference.example.com/alice", "room@conference.example.com", "!ping"))

	sent := tr.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(sent))
	}
	if sent[0].To != "room@conference.example.com" || sent[0].Kind != transport.KindGroup {
		t.Fatalf("reply not addressed at the room: %+v", sent[0])
	}
}

func TestNicknameAddressedGroupCommand(t *testing.T) {
	b, tr, _ := newTestBot(t, Options{})

	var gotArgs []string
	b.RegisterCommand("echo", func(msg *Message, args []string) (string, bool) {
		gotArgs = args
		return "ok", true
	}, false)

	tr.emit(t, groupMessage("room@x/alice", "room@x", "whistler: echo a b"))

	if !reflect.DeepEqual(gotArgs, []string{"a", "b"}) {
		t.Fatalf("args = %v, want [a b]", gotArgs)
	}
}

func TestUnknownGroupCommandIsSilentlyIgnored(t *testing.T) {
	_, tr, _ := newTestBot(t, Options{})

	tr.emit(t, groupMessage("room@x/alice", "room@x", "!list_rooms"))

	if got := tr.sentMessages(); len(got) != 0 {
		t.Fatalf("expected silence for unknown command, got %d sends", len(got))
	}
}

func TestEmptyStringIsAValidReply(t *testing.T) {
	b, tr, _ := newTestBot(t, Options{})

	b.RegisterCommand("blank", func(msg *Message, args []string) (string, bool) {
		return "", true
	}, false)
	b.RegisterCommand("quiet", func(msg *Message, args []string) (string, bool) {
		return "", false
	}, false)

	tr.emit(t, directMessage("alice@example.com", "blank"))
	tr.emit(t, directMessage("alice@example.com", "quiet"))

	sent := tr.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected exactly the empty reply, got %d sends", len(sent))
	}
	if sent[0].Body != "" {
		t.Fatalf("expected empty body, got %q", sent[0].Body)
	}
}

func TestRegisterCommandOverwrites(t *testing.T) {
	b, tr, _ := newTestBot(t, Options{})

	b.RegisterCommand("v", func(msg *Message, args []string) (string, bool) { return "one", true }, false)
	b.RegisterCommand("v", func(msg *Message, args []string) (string, bool) { return "two", true }, false)

	tr.emit(t, directMessage("alice@example.com", "v"))

	sent := tr.sentMessages()
	if len(sent) != 1 || sent[0].Body != "two" {
		t.Fatalf("expected last registration to win, got %+v", sent)
	}
}
