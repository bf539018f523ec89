package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeJoinRoom   = 101
	MsgTypeCreateRoom = 103
	MsgTypeSnapshot   = 104
	MsgTypeGameCmd    = 201
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	playerID := "demo-player"
	nickname := "Demo"
	if len(os.Args) > 1 {
		playerID = os.Args[1]
		nickname = os.Args[1]
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	// Create a room and join it as playerID
	log.Println("Sending Create Room request...")
	create := map[string]string{"player_id": playerID, "nickname": nickname}
	createData, _ := json.Marshal(create)
	if err := send(c, MsgTypeCreateRoom, createData); err != nil {
		log.Println("Write error:", err)
		return
	}

	log.Println("Client started. Commands: start | roll | answer <event_id> correct|incorrect | leave")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			var cmd map[string]interface{}
			switch fields[0] {
			case "start", "roll", "leave":
				cmd = map[string]interface{}{"type": fields[0]}
			case "answer":
				if len(fields) < 3 {
					log.Println("usage: answer <event_id> correct|incorrect")
					continue
				}
				cmd = map[string]interface{}{
					"type":     "resolve",
					"event_id": fields[1],
					"outcome":  map[string]string{"result": fields[2]},
				}
			default:
				log.Printf("unknown command %q", fields[0])
				continue
			}

			cmdData, _ := json.Marshal(cmd)
			if err := send(c, MsgTypeGameCmd, cmdData); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", fields[0])
		}
	}
}
