// Package livemic streams microphone audio to the live transcription
// websocket and delivers transcript turns back to the caller. A session is
// the only user-cancelable long-running operation: closing it closes the
// socket and ends the stream.
package livemic

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Audio format expected by the streaming endpoint: 16 kHz mono PCM16,
// sent in 100 ms frames.
const (
	SampleRate = 16000
	// FrameBytes is 100 ms of samples at 2 bytes each.
	FrameBytes = SampleRate / 10 * 2
)

// Turn is one finished or in-progress utterance from the live transcriber.
type Turn struct {
	Transcript string
	EndOfTurn  bool
}

type serverMessage struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
	EndOfTurn  bool   `json:"end_of_turn,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Session is an open live transcription stream.
type Session struct {
	conn  *websocket.Conn
	turns chan Turn

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to a streaming URL obtained from the transcription service
// and waits for the server's Begin message before returning.
func Dial(ctx context.Context, streamURL string) (*Session, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial streaming endpoint: %w", err)
	}

	s := &Session{conn: conn, turns: make(chan Turn, 16)}

	// The server opens with {type:"Begin"} once it is ready for audio.
	var first serverMessage
	if err := conn.ReadJSON(&first); err != nil {
		conn.Close()
		return nil, fmt.Errorf("read session open: %w", err)
	}
	if first.Type != "Begin" {
		conn.Close()
		return nil, fmt.Errorf("unexpected opening message type %q", first.Type)
	}

	go s.readLoop()
	return s, nil
}

// Turns returns the channel of transcript turns. It is closed when the
// session ends, whether by Close or by the server hanging up.
func (s *Session) Turns() <-chan Turn {
	return s.turns
}

// SendFrame writes one 100 ms PCM16 audio frame to the stream.
func (s *Session) SendFrame(frame []byte) error {
	if len(frame) != FrameBytes {
		return fmt.Errorf("frame must be %d bytes, got %d", FrameBytes, len(frame))
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("write audio frame: %w", err)
	}
	return nil
}

// Stream reads PCM16 audio from r and sends it frame by frame until r is
// exhausted or ctx is canceled. A short final frame is zero-padded.
func (s *Session) Stream(ctx context.Context, r io.Reader) error {
	buf := make([]byte, FrameBytes)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return nil
		}
		if err == io.ErrUnexpectedEOF {
			for i := n; i < FrameBytes; i++ {
				buf[i] = 0
			}
			return s.SendFrame(buf)
		}
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		if err := s.SendFrame(buf); err != nil {
			return err
		}
	}
}

// Close terminates the session and closes the socket.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// readLoop decodes server messages and forwards transcript turns until the
// socket closes.
func (s *Session) readLoop() {
	defer close(s.turns)

	for {
		var msg serverMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				log.Printf("[LiveMic] read error: %v", err)
			}
			return
		}

		switch msg.Type {
		case "Turn":
			s.turns <- Turn{Transcript: msg.Transcript, EndOfTurn: msg.EndOfTurn}
		case "Termination":
			return
		case "Error":
			log.Printf("[LiveMic] server error: %s", msg.Error)
		}
	}
}
