package livemic

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{}

// fakeStream upgrades the connection, sends Begin, then hands the socket to
// the given script.
func fakeStream(t *testing.T, script func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		conn.WriteJSON(serverMessage{Type: "Begin"})
		script(conn)
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// TestDialWaitsForBegin tests that Dial succeeds only after the Begin message.
func TestDialWaitsForBegin(t *testing.T) {
	srv := fakeStream(t, func(conn *websocket.Conn) {
		// Hold the socket open until the client hangs up.
		conn.ReadMessage()
	})
	defer srv.Close()

	s, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	s.Close()
}

// TestDialRejectsWrongOpening tests that a non-Begin opening fails the dial.
func TestDialRejectsWrongOpening(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(serverMessage{Type: "Error", Error: "no capacity"})
	}))
	defer srv.Close()

	if _, err := Dial(context.Background(), wsURL(srv)); err == nil {
		t.Fatal("Expected dial to fail on a non-Begin opening message")
	}
}

// TestSendFrameSizeCheck tests the exact-frame-size requirement.
func TestSendFrameSizeCheck(t *testing.T) {
	srv := fakeStream(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})
	defer srv.Close()

	s, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer s.Close()

	if err := s.SendFrame(make([]byte, 100)); err == nil {
		t.Error("Expected error for undersized frame")
	}
	if err := s.SendFrame(make([]byte, FrameBytes)); err != nil {
		t.Errorf("Expected full frame to send, got %v", err)
	}
}

// TestStreamZeroPadsFinalFrame tests that a short tail still goes out as one
// full frame.
func TestStreamZeroPadsFinalFrame(t *testing.T) {
	frames := make(chan []byte, 8)
	srv := fakeStream(t, func(conn *websocket.Conn) {
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				close(frames)
				return
			}
			if mt == websocket.BinaryMessage {
				frames <- data
			}
		}
	})
	defer srv.Close()

	s, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	// One and a half frames of audio.
	audio := bytes.Repeat([]byte{0x7F}, FrameBytes+FrameBytes/2)
	if err := s.Stream(context.Background(), bytes.NewReader(audio)); err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	s.Close()

	var got [][]byte
	for f := range frames {
		got = append(got, f)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(got))
	}
	if len(got[0]) != FrameBytes || len(got[1]) != FrameBytes {
		t.Errorf("Expected full-size frames, got %d and %d bytes", len(got[0]), len(got[1]))
	}
	// The padded half must be zeros.
	tail := got[1][FrameBytes/2:]
	if !bytes.Equal(tail, make([]byte, FrameBytes/2)) {
		t.Error("Expected final frame tail to be zero-padded")
	}
}

// TestTurnsDelivery tests that transcript turns reach the channel and the
// channel closes on Termination.
func TestTurnsDelivery(t *testing.T) {
	srv := fakeStream(t, func(conn *websocket.Conn) {
		conn.WriteJSON(serverMessage{Type: "Turn", Transcript: "counsel will", EndOfTurn: false})
		conn.WriteJSON(serverMessage{Type: "Turn", Transcript: "counsel will proceed", EndOfTurn: true})
		conn.WriteJSON(serverMessage{Type: "Termination"})
		conn.ReadMessage()
	})
	defer srv.Close()

	s, err := Dial(context.Background(), wsURL(srv))
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer s.Close()

	var turns []Turn
	timeout := time.After(2 * time.Second)
	for {
		select {
		case turn, ok := <-s.Turns():
			if !ok {
				if len(turns) != 2 {
					t.Fatalf("Expected 2 turns, got %d", len(turns))
				}
				if turns[0].EndOfTurn || !turns[1].EndOfTurn {
					t.Errorf("Unexpected end-of-turn flags: %+v", turns)
				}
				if turns[1].Transcript != "counsel will proceed" {
					t.Errorf("Unexpected transcript: %q", turns[1].Transcript)
				}
				return
			}
			turns = append(turns, turn)
		case <-timeout:
			t.Fatal("Timed out waiting for turns")
		}
	}
}

// TestFrameBytesIs100ms pins the wire format constant.
func TestFrameBytesIs100ms(t *testing.T) {
	if FrameBytes != 3200 {
		t.Errorf("Expected 3200 bytes per frame, got %d", FrameBytes)
	}
}
