package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/match"
)

func foolsMate(t *testing.T) *match.Session {
	t.Helper()
	s, err := match.New(match.Config{
		ID: "m1", White: match.Participant{ID: "alice"}, Black: match.Participant{ID: "bob"},
		WhiteStake: 50, BlackStake: 50,
	})
	if err != nil {
		t.Fatalf("match.New: %v", err)
	}
	for _, uci := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		m, err := board.ParseUCI(s.Current(), uci)
		if err != nil {
			t.Fatalf("ParseUCI(%s): %v", uci, err)
		}
		if _, err := s.SubmitMove(s.Turn(), m); err != nil {
			t.Fatalf("SubmitMove(%s): %v", uci, err)
		}
	}
	return s
}

func TestFromSession(t *testing.T) {
	s := foolsMate(t)
	u := FromSession(KindFinished, s)
	if u.MatchID != "m1" || u.Status != match.StatusCheckmate {
		t.Fatalf("unexpected frame %+v", u)
	}
	if u.LastMove != "d8h4" || u.LastSAN != "Qh4#" {
		t.Fatalf("last move = %s / %s", u.LastMove, u.LastSAN)
	}
	if u.Outcome == nil || u.Outcome.Winner != board.Black {
		t.Fatalf("outcome = %+v", u.Outcome)
	}
	if u.Version != s.Version || u.FEN != s.Current().FEN() {
		t.Fatalf("frame does not match session")
	}
}

type failing struct{}

func (failing) Publish(context.Context, StateUpdate) error { return errors.New("down") }

func TestMultiPublishesToAllAndJoinsErrors(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	err := Multi{a, failing{}, nil, b}.Publish(context.Background(), StateUpdate{MatchID: "m1"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("err = %v", err)
	}
	if len(a.Updates()) != 1 || len(b.Updates()) != 1 {
		t.Fatalf("fan-out missed a sink: %d %d", len(a.Updates()), len(b.Updates()))
	}
	if err := Nop().Publish(context.Background(), StateUpdate{}); err != nil {
		t.Fatalf("Nop: %v", err)
	}
}

func TestRedisSink(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	sink := NewRedis(rdb, "")
	ps := rdb.Subscribe(ctx, sink.MatchChannel("m1"), sink.AllChannel())
	defer ps.Close()
	// two subscription confirmations
	for i := 0; i < 2; i++ {
		if _, err := ps.Receive(ctx); err != nil {
			t.Fatalf("Receive: %v", err)
		}
	}
	ch := ps.Channel()

	if err := sink.Publish(ctx, FromSession(KindFinished, foolsMate(t))); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case msg := <-ch:
			var got StateUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.MatchID != "m1" || got.Status != match.StatusCheckmate {
				t.Fatalf("payload = %+v", got)
			}
			seen[msg.Channel] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, saw %v", seen)
		}
	}
}

func TestWebSocketSink(t *testing.T) {
	received := make(chan StateUpdate, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		if r.Header.Get("X-Gateway-Token") != "secret" {
			c.Close(websocket.StatusPolicyViolation, "token")
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "")
		for {
			var u StateUpdate
			if err := wsjson.Read(r.Context(), c, &u); err != nil {
				return
			}
			received <- u
		}
	}))
	defer srv.Close()

	sink := NewWebSocket("ws"+strings.TrimPrefix(srv.URL, "http"),
		func() map[string]string { return map[string]string{"X-Gateway-Token": "secret"} }, nil)
	defer sink.Close()

	ctx := context.Background()
	for _, id := range []string{"m1", "m2"} {
		if err := sink.Publish(ctx, StateUpdate{Kind: KindMove, MatchID: id}); err != nil {
			t.Fatalf("Publish(%s): %v", id, err)
		}
	}
	for _, want := range []string{"m1", "m2"} {
		select {
		case u := <-received:
			if u.MatchID != want {
				t.Fatalf("got %s, want %s", u.MatchID, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	_ = sink.Close()
	if err := sink.Publish(ctx, StateUpdate{MatchID: "m3"}); !errors.Is(err, ErrSinkClosed) {
		t.Fatalf("publish after close err = %v", err)
	}
}
