package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/boardgame/game"
	"github.com/wfunc/boardgame/logger"
	"github.com/wfunc/boardgame/models"
	"github.com/wfunc/boardgame/room"
	"github.com/wfunc/boardgame/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered by the caller
// through the net/rpc package before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// GameService 运维侧的查询口：房间快照和玩家统计
type GameService struct {
	roomManager   *room.Manager
	resultService *services.ResultService
}

func NewGameService(roomManager *room.Manager, resultService *services.ResultService) *GameService {
	return &GameService{
		roomManager:   roomManager,
		resultService: resultService,
	}
}

type SnapshotArgs struct {
	RoomID string
}

type SnapshotReply struct {
	Snapshot *game.Snapshot
}

// GetRoomSnapshot returns the authoritative snapshot of a running room.
func (gs *GameService) GetRoomSnapshot(args *SnapshotArgs, reply *SnapshotReply) error {
	r, exists := gs.roomManager.GetRoom(args.RoomID)
	if !exists {
		return game.ErrUnknownRoom
	}
	reply.Snapshot = r.Snapshot()
	return nil
}

type StatsArgs struct {
	PlayerID string
}

type StatsReply struct {
	Stats *models.PlayerStats
}

// GetPlayerStats returns a player's aggregated record across finished games.
// 无数据库部署时 resultService 为 nil，统计接口直接报错而不是崩掉连接。
func (gs *GameService) GetPlayerStats(args *StatsArgs, reply *StatsReply) error {
	if gs.resultService == nil {
		return errors.New("player stats unavailable without a database")
	}
	stats, err := gs.resultService.PlayerStats(args.PlayerID)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}
