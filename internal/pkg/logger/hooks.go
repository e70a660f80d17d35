package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"accesscore/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileHook 按日志类型(entry.Data["type"])写入不同的滚动文件
type FileHook struct {
	logConfig *config.LogConfig
	writers   map[LogType]io.Writer
	formatter logrus.Formatter
	mutex     sync.Mutex
}

// typedFiles 有独立文件的日志类型
var typedFiles = map[LogType]string{
	AccessLog:   "access.log",
	BusinessLog: "business.log",
	ErrorLog:    "error.log",
	SystemLog:   "system.log",
	AuditLog:    "audit.log",
}

// NewFileHook 创建FileHook
func NewFileHook(logConfig *config.LogConfig) *FileHook {
	return &FileHook{
		logConfig: logConfig,
		writers:   make(map[LogType]io.Writer),
		formatter: &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		},
	}
}

// Levels 返回此Hook关心的所有日志级别
func (hook *FileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire 在日志触发时执行
func (hook *FileHook) Fire(entry *logrus.Entry) error {
	logType := LogType("")
	switch t := entry.Data["type"].(type) {
	case LogType:
		logType = t
	case string:
		logType = LogType(t)
	}

	formatted, err := hook.formatter.Format(entry)
	if err != nil {
		return err
	}

	hook.mutex.Lock()
	defer hook.mutex.Unlock()
	_, err = hook.writerFor(logType).Write(formatted)
	return err
}

// writerFor 获取日志类型对应的writer，未知类型写主日志文件；调用方持有锁
func (hook *FileHook) writerFor(logType LogType) io.Writer {
	name, typed := typedFiles[logType]
	if !typed {
		logType = ""
	}
	if writer, ok := hook.writers[logType]; ok {
		return writer
	}

	filename := hook.logConfig.FilePath
	if typed {
		filename = filepath.Join(filepath.Dir(hook.logConfig.FilePath), name)
	}
	_ = os.MkdirAll(filepath.Dir(filename), 0o755)

	writer := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    hook.logConfig.MaxSize,
		MaxBackups: hook.logConfig.MaxBackups,
		MaxAge:     hook.logConfig.MaxAge,
		Compress:   hook.logConfig.Compress,
	}
	hook.writers[logType] = writer
	return writer
}
