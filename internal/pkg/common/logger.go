package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger 全域日誌實例，InitLogger 之前為 no-op
	Logger = zap.NewNop()
	// LogMode 由 LOG_MODE 環境變數決定，concise 只輸出請求與啟停訊息
	LogMode string

	levelColors = map[zapcore.Level]string{
		zapcore.DebugLevel: "\033[36m",
		zapcore.InfoLevel:  "\033[32m",
		zapcore.WarnLevel:  "\033[33m",
		zapcore.ErrorLevel: "\033[31m",
		zapcore.FatalLevel: "\033[35m",
	}
	levelTags = map[zapcore.Level]string{
		zapcore.DebugLevel: "DBG",
		zapcore.InfoLevel:  "INF",
		zapcore.WarnLevel:  "WRN",
		zapcore.ErrorLevel: "ERR",
		zapcore.FatalLevel: "FAT",
	}
	resetColor = "\033[0m"

	// concise 模式下仍會輸出的訊息
	conciseMessages = map[string]struct{}{
		MsgRequestDone:  {},
		MsgAppStart:     {},
		MsgServerExit:   {},
		MsgShuttingDown: {},
		MsgCatalogReady: {},
	}
)

// 固定的日誌訊息
const (
	MsgRequestDone  = "請求完成"
	MsgAppStart     = "啟動應用"
	MsgServerExit   = "Server exited"
	MsgShuttingDown = "Shutting down server..."
	MsgCatalogReady = "食譜目錄已載入"
)

// LogConfig 日誌設定
type LogConfig struct {
	Level   string
	File    string
	Service string
}

func encoderConfig(colored bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if colored {
		cfg.EncodeLevel = coloredLevelEncoder
		cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("15:04:05.000"))
		}
	}
	return cfg
}

// 終端機輸出使用三字母並加上顏色
func coloredLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	tag, ok := levelTags[l]
	if !ok {
		tag = l.CapitalString()
	}
	enc.AppendString(levelColors[l] + tag + resetColor)
}

// ParseLevel 將字串轉為日誌級別，無法辨識時為 info
func ParseLevel(s string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// InitLogger 初始化日誌系統：彩色終端輸出加上 JSON 檔案輸出
func InitLogger(cfg LogConfig) error {
	level := ParseLevel(cfg.Level)
	LogMode = os.Getenv("LOG_MODE")

	if cfg.File == "" {
		cfg.File = "logs/app.log"
	}
	if cfg.Service == "" {
		cfg.Service = "recipe-matcher"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig(false)), zapcore.AddSync(logFile), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig(true)), zapcore.AddSync(os.Stdout), level),
	)

	Logger = zap.New(core,
		zap.AddCallerSkip(1),
		zap.Fields(zap.String("service", cfg.Service)),
	)
	zap.ReplaceGlobals(Logger)
	return nil
}

// filterFields 移除圖片內容等大型欄位
func filterFields(fields []zap.Field) []zap.Field {
	filtered := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		if field.Key == "image" || strings.Contains(field.Key, "image_data") || strings.Contains(field.Key, "base64") {
			continue
		}
		filtered = append(filtered, field)
	}
	return filtered
}

// LogInfo 記錄資訊日誌
func LogInfo(msg string, fields ...zap.Field) {
	if LogMode == "concise" {
		if _, ok := conciseMessages[msg]; !ok {
			return
		}
	}
	Logger.Info(msg, filterFields(fields)...)
}

// LogError 記錄錯誤日誌
func LogError(msg string, fields ...zap.Field) {
	Logger.Error(msg, filterFields(fields)...)
}

// LogWarn 記錄警告日誌
func LogWarn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, filterFields(fields)...)
}

// LogDebug 記錄除錯日誌
func LogDebug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, filterFields(fields)...)
}

// LogFatal 記錄致命錯誤並結束程式
func LogFatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}

// Sync 同步日誌緩衝
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// LogCacheResult 記錄快取命中與否，不輸出鍵值
func LogCacheResult(store string, hit bool) {
	if hit {
		LogDebug("快取命中", zap.String("store", store))
		return
	}
	LogDebug("快取未命中", zap.String("store", store))
}

// LogDetectionCall 記錄影像辨識呼叫
func LogDetectionCall(model string, duration time.Duration, count int, err error) {
	if err != nil {
		LogError("食材辨識失敗",
			zap.String("model", model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	LogInfo("食材辨識完成",
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("ingredients", count),
	)
}
