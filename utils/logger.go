package utils

import (
	"os"

	"github.com/Bekzhanizb/QuitTrackerBackend/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is usable before InitLogger runs; it discards everything until then.
var Logger = zap.NewNop()

func InitLogger(cfg config.Config) {
	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    50, // MB
		MaxBackups: 7,
		MaxAge:     14, // days
		Compress:   true,
	})

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	level := zap.InfoLevel
	cores := []zapcore.Core{zapcore.NewCore(encoder, writer, level)}
	if !cfg.IsProduction() {
		level = zap.DebugLevel
		cores = []zapcore.Core{
			zapcore.NewCore(encoder, writer, level),
			zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), level),
		}
	}

	Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
