package network

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsPair dials a loopback websocket and returns both ends wrapped.
func wsPair(t *testing.T) (client *WSConnection, server *WSConnection) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverCh := make(chan *WSConnection, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverCh <- NewWSConnection(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	client = NewWSConnection(conn)
	t.Cleanup(func() { client.Close() })

	select {
	case server = <-serverCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Server side of the pair never arrived")
	}
	t.Cleanup(func() { server.Close() })
	return client, server
}

func TestWSConnection_RoundTrip(t *testing.T) {
	client, server := wsPair(t)

	payload := []byte(`{"type":"start"}`)
	if err := client.Send(201, payload); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	packet, err := server.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if packet.MsgID != 201 || !bytes.Equal(packet.Data, payload) {
		t.Errorf("Packet mismatch: id=%d data=%q", packet.MsgID, packet.Data)
	}
}

func TestWSConnection_MaxPayloadDeliveredIntact(t *testing.T) {
	client, server := wsPair(t)

	payload := bytes.Repeat([]byte("x"), maxPayload)
	if err := client.Send(104, payload); err != nil {
		t.Fatalf("Send at the payload limit failed: %v", err)
	}

	packet, err := server.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if int(packet.Length) != maxPayload || len(packet.Data) != maxPayload {
		t.Errorf("Expected %d bytes, got header %d body %d", maxPayload, packet.Length, len(packet.Data))
	}
}

func TestWSConnection_RejectsPayloadBeyondLengthHeader(t *testing.T) {
	client, server := wsPair(t)

	// 长度头装不下的负载必须在发送端被拒绝，而不是发出一个
	// 长度字段被截断、对端判定损坏的帧
	payload := bytes.Repeat([]byte("x"), maxPayload+1)
	if err := client.Send(104, payload); err == nil {
		t.Fatal("Expected Send to reject a payload the length header cannot represent")
	}

	// 拒绝之后连接仍然可用
	if err := client.Send(1, nil); err != nil {
		t.Fatalf("Send after rejection failed: %v", err)
	}
	packet, err := server.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if packet.MsgID != 1 || packet.Length != 0 {
		t.Errorf("Unexpected packet after rejection: %+v", packet)
	}
}
