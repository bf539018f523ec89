package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/boardgame/board"
	"github.com/wfunc/boardgame/broadcast"
	"github.com/wfunc/boardgame/config"
	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/logger"
	"github.com/wfunc/boardgame/monitor"
	"github.com/wfunc/boardgame/network"
	"github.com/wfunc/boardgame/persistence"
	"github.com/wfunc/boardgame/rng"
	"github.com/wfunc/boardgame/room"
	boardgame_rpc "github.com/wfunc/boardgame/rpc"
	"github.com/wfunc/boardgame/services"
	"github.com/wfunc/boardgame/session"
	"github.com/wfunc/boardgame/timer"
)

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	catalog        *board.Catalog
	rules          game.Rules
	defaultBoard   string
	roller         rng.Roller
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    broadcast.Broadcaster
	resultService  *services.ResultService
	db             persistence.Database
	timers         *timer.Manager
	monitor        *monitor.Monitor
	rpcServer      *boardgame_rpc.Server
	shutdownChan   chan struct{}
}

// NewGameServer 组装所有组件。db 可为 nil（无持久化运行）。
func NewGameServer(cfg *config.Config, db persistence.Database) *GameServer {
	s := &GameServer{
		addr:           cfg.Server.HTTPAddress,
		catalog:        board.NewCatalog(),
		rules:          game.RulesFromConfig(cfg.Game),
		defaultBoard:   cfg.Game.BoardID,
		roller:         rng.New(),
		roomManager:    room.NewRoomManager(),
		sessionManager: session.NewManager(),
		db:             db,
		timers:         timer.NewManager(),
		monitor:        monitor.NewMonitor("boardgame"),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 内置棋盘
	if err := s.catalog.Register(board.Classic()); err != nil {
		logger.Log.Fatalf("Failed to register default board: %v", err)
	}
	if s.defaultBoard == "" {
		s.defaultBoard = "classic"
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessionManager)

	if db != nil {
		s.resultService = services.NewResultService(db)
	}

	// 初始化RPC服务器
	rpcServer, err := boardgame_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	gameService := boardgame_rpc.NewGameService(s.roomManager, s.resultService)
	rpc.Register(gameService)

	if cfg.Server.MonitorAddress != "" {
		s.monitor.StartServer(cfg.Server.MonitorAddress)
	}

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.handleDisconnect(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

// handleDisconnect 断线转成 leave 命令：玩家留在回合循环里，
// 轮到时自动跳过，对其他玩家不表现为错误。
// 终局房间在最后一个会话断开时销毁，之前保留给迟到的快照查询。
func (s *GameServer) handleDisconnect(sess *session.Session) {
	roomID := sess.GetRoomID()
	if roomID == "" {
		return
	}
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		return
	}

	if sess.PlayerID != "" {
		if _, err := r.Submit(game.Command{Type: game.CmdLeave, PlayerID: sess.PlayerID}); err != nil {
			if err != game.ErrSessionEnded && err != game.ErrUnknownPlayer {
				logger.Log.Warnf("Leave on disconnect failed for %s: %v", sess.PlayerID, err)
			}
		}
	}

	// 本会话此刻还在管理器里，<=1 意味着它是房间的最后一条
	if r.Finished() && len(s.sessionManager.GetByRoomID(roomID)) <= 1 {
		s.roomManager.RemoveRoom(roomID)
		s.monitor.SetActiveRooms(s.roomManager.Count())
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.LastActive = time.Now()
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess, packet)
	case network.MsgTypeSnapshot:
		s.handleSnapshot(sess, packet)
	case network.MsgTypeGameCmd:
		s.handleGameCommand(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

type createRoomRequest struct {
	Name     string             `json:"name"`
	BoardID  string             `json:"board_id"`
	PlayerID string             `json:"player_id"`
	Nickname string             `json:"nickname"`
	Avatar   string             `json:"avatar"`
	Roster   []room.RosterEntry `json:"roster,omitempty"`
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req createRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", err.Error())
		return
	}

	boardID := req.BoardID
	if boardID == "" {
		boardID = s.defaultBoard
	}
	b, exists := s.catalog.Get(boardID)
	if !exists {
		s.sendError(sess, "unknown_board", boardID)
		return
	}

	roomID := uuid.New().String()
	r, err := s.roomManager.CreateRoom(roomID, req.Name, b, s.rules, req.Roster,
		s.roller, s.broadcaster, s.recorder(), s.monitor, s.timers)
	if err != nil {
		s.sendError(sess, "create_failed", err.Error())
		return
	}
	s.monitor.SetActiveRooms(s.roomManager.Count())

	if req.PlayerID != "" {
		sess.BindPlayer(req.PlayerID, req.Nickname, req.Avatar)
		sess.JoinRoom(roomID)
		if _, err := s.submit(r, game.Command{
			Type: game.CmdJoin, PlayerID: req.PlayerID,
			Nickname: req.Nickname, Avatar: req.Avatar,
		}); err != nil && err != game.ErrSessionEnded {
			// 预置名单里已有建房者时 Join 是重连语义，不会失败
			logger.Log.Warnf("Creator join failed in room %s: %v", roomID, err)
		}
	}

	logger.Log.Infof("Session %s created room %s (board %s)", sess.GetID(), roomID, boardID)

	resp := map[string]string{"room_id": roomID}
	data, _ := json.Marshal(resp)
	sess.Send(network.MsgTypeCreateRoom, data)
}

type joinRoomRequest struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req joinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", err.Error())
		return
	}

	r, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		s.sendError(sess, errorCode(game.ErrUnknownRoom), req.RoomID)
		return
	}

	if _, err := s.submit(r, game.Command{
		Type: game.CmdJoin, PlayerID: req.PlayerID,
		Nickname: req.Nickname, Avatar: req.Avatar,
	}); err != nil {
		s.sendError(sess, errorCode(err), err.Error())
		return
	}

	sess.BindPlayer(req.PlayerID, req.Nickname, req.Avatar)
	sess.JoinRoom(req.RoomID)
	logger.Log.Infof("Player %s joined room %s", req.PlayerID, req.RoomID)

	// 新加入和重连的客户端都立即拿到完整快照同步
	s.sendSnapshot(sess, r)
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, packet *network.Packet) {
	roomID := sess.GetRoomID()
	if roomID == "" {
		return
	}
	if r, exists := s.roomManager.GetRoom(roomID); exists {
		if _, err := s.submit(r, game.Command{Type: game.CmdLeave, PlayerID: sess.PlayerID}); err != nil {
			s.sendError(sess, errorCode(err), err.Error())
			return
		}
	}
	sess.JoinRoom("")
}

type snapshotRequest struct {
	RoomID string `json:"room_id"`
}

func (s *GameServer) handleSnapshot(sess *session.Session, packet *network.Packet) {
	roomID := sess.GetRoomID()
	var req snapshotRequest
	if err := json.Unmarshal(packet.Data, &req); err == nil && req.RoomID != "" {
		roomID = req.RoomID
	}

	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		s.sendError(sess, errorCode(game.ErrUnknownRoom), roomID)
		return
	}
	s.sendSnapshot(sess, r)
}

type gameCommandRequest struct {
	Type    string       `json:"type"` // start/roll/resolve/leave
	EventID string       `json:"event_id,omitempty"`
	Outcome game.Outcome `json:"outcome,omitempty"`
}

func (s *GameServer) handleGameCommand(sess *session.Session, packet *network.Packet) {
	roomID := sess.GetRoomID()
	if roomID == "" {
		s.sendError(sess, errorCode(game.ErrUnknownRoom), "not in a room")
		return
	}
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		s.sendError(sess, errorCode(game.ErrUnknownRoom), roomID)
		return
	}

	var req gameCommandRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "bad_request", err.Error())
		return
	}

	cmd := game.Command{PlayerID: sess.PlayerID, EventID: req.EventID, Outcome: req.Outcome}
	switch req.Type {
	case "start":
		cmd.Type = game.CmdStart
	case "roll":
		cmd.Type = game.CmdRollAndMove
	case "resolve":
		cmd.Type = game.CmdResolve
	case "leave":
		cmd.Type = game.CmdLeave
	default:
		s.sendError(sess, "bad_request", "unknown command type "+req.Type)
		return
	}

	delta, err := s.submit(r, cmd)
	if err != nil {
		// 拒绝只报告给发起者，房间状态不变
		s.sendError(sess, errorCode(err), err.Error())
		return
	}

	if delta.Finished {
		s.onSessionFinished(r)
	}
}

// submit 经过监控包装的命令提交
func (s *GameServer) submit(r *room.Room, cmd game.Command) (*game.StateDelta, error) {
	start := time.Now()
	delta, err := r.Submit(cmd)
	s.monitor.ObserveCommandLatency(time.Since(start))

	if err != nil {
		s.monitor.IncCommandsRejected()
		return nil, err
	}

	// 阻塞事件计数在房间的 publish 里维护，超时路径也会经过那里
	s.monitor.IncCommandsProcessed()
	return delta, nil
}

// onSessionFinished 终局：归档成绩，房间留给迟来的快照查询，
// 由最后一个会话断开时移除
func (s *GameServer) onSessionFinished(r *room.Room) {
	if s.resultService == nil {
		return
	}
	if err := s.resultService.RecordResult(r.Snapshot()); err != nil {
		logger.Log.Errorf("Failed to record result for room %s: %v", r.ID, err)
	}
}

func (s *GameServer) sendSnapshot(sess *session.Session, r *room.Room) {
	data, err := json.Marshal(r.Snapshot())
	if err != nil {
		return
	}
	sess.Send(network.MsgTypeSnapshot, data)
}

func (s *GameServer) sendError(sess *session.Session, code, message string) {
	data, _ := json.Marshal(map[string]string{"code": code, "message": message})
	sess.Send(network.MsgTypeError, data)
}

func (s *GameServer) recorder() room.Recorder {
	if s.db == nil {
		return nil
	}
	return s.db
}

// errorCode 把命令错误映射成线上错误码
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrInvalidRoll):
		return "invalid_roll"
	case errors.Is(err, game.ErrSessionEnded):
		return "session_ended"
	case errors.Is(err, game.ErrNotStarted):
		return "not_started"
	case errors.Is(err, game.ErrAlreadyStarted):
		return "already_started"
	case errors.Is(err, game.ErrUnknownPlayer):
		return "unknown_player"
	case errors.Is(err, game.ErrUnknownRoom):
		return "unknown_room"
	case errors.Is(err, game.ErrStaleEvent):
		return "stale_event"
	case errors.Is(err, game.ErrEventPending):
		return "event_pending"
	case errors.Is(err, game.ErrRoomFull):
		return "room_full"
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, game.ErrInvalidOutcome):
		return "invalid_outcome"
	}
	return "internal"
}
