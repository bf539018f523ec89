package logger

import (
	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

func Init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// InitNop 安装一个空日志器，测试用
func InitNop() {
	Log = zap.NewNop().Sugar()
}

func init() {
	// 防止在 Init 之前调用 Log 导致空指针
	Log = zap.NewNop().Sugar()
}
