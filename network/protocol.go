package network

const (
	MsgTypeHeartbeat    = 1
	MsgTypeJoinRoom     = 101
	MsgTypeLeaveRoom    = 102
	MsgTypeCreateRoom   = 103
	MsgTypeSnapshot     = 104
	MsgTypeGameCmd      = 201
	MsgTypeStateDelta   = 301
	MsgTypeSessionEnded = 302
	MsgTypeError        = 401
)
