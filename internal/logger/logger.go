package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "text-digest.log"

type Logger struct {
	*logrus.Logger
	fileLogger *logrus.Logger
}

var defaultLogger *Logger

func init() {
	// 控制台日志配置
	consoleLogger := logrus.New()
	consoleLogger.SetFormatter(&logrus.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	consoleLogger.SetOutput(os.Stdout)
	consoleLogger.SetLevel(logrus.DebugLevel)

	// 文件日志配置，Setup 之前不落盘
	fileLogger := logrus.New()
	fileLogger.SetFormatter(&logrus.JSONFormatter{
		PrettyPrint:     false,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	fileLogger.SetLevel(logrus.InfoLevel)
	fileLogger.SetOutput(io.Discard)

	defaultLogger = &Logger{
		Logger:     consoleLogger,
		fileLogger: fileLogger,
	}
}

// Setup 根据配置设置日志级别并开启文件日志轮转
func Setup(c config.Log) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		defaultLogger.Logger.Warnf("未知的日志级别 %q，使用 info", c.Level)
		level = logrus.InfoLevel
	}
	defaultLogger.Logger.SetLevel(level)
	defaultLogger.fileLogger.SetLevel(level)

	if c.Dir == "" {
		return
	}

	// 创建日志目录
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		defaultLogger.Logger.Errorf("无法创建日志目录: %v", err)
		return
	}

	// 使用lumberjack进行日志轮转
	defaultLogger.fileLogger.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(c.Dir, logFileName),
		MaxSize:    10,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	})
}

func Infof(format string, args ...any) {
	defaultLogger.Logger.Infof(format, args...)
	defaultLogger.fileLogger.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	defaultLogger.Logger.Warnf(format, args...)
	defaultLogger.fileLogger.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	defaultLogger.Logger.Errorf(format, args...)
	defaultLogger.fileLogger.Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	defaultLogger.fileLogger.Errorf(format, args...)
	defaultLogger.Logger.Fatalf(format, args...)
}

func Debugf(format string, args ...any) {
	defaultLogger.Logger.Debugf(format, args...)
	defaultLogger.fileLogger.Debugf(format, args...)
}
