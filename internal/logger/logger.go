package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config содержит настройки логгера.
type Config struct {
	Level      string // debug, info, warn, error
	Encoding   string // json или console
	OutputPath string // файл лога, по умолчанию stdout
	Service    string // значение поля service в каждой записи
	// ComponentLevels переопределяет уровень для именованных логгеров (logger.Named),
	// формат "Renderer=debug,GeneratorService=warn".
	ComponentLevels string
}

// New создает zap.Logger: ISO8601 timestamp, уровни заглавными, без caller и стектрейсов.
// Имя компонента из logger.Named пишется в поле component.
func New(cfg Config) (*zap.Logger, error) {
	level := parseLevel(cfg.Level, "log level")
	overrides := ParseComponentLevels(cfg.ComponentLevels)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.NameKey = "component"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoding := strings.ToLower(cfg.Encoding)
	if encoding != "console" && encoding != "json" {
		encoding = "json"
	}

	outputPath := cfg.OutputPath
	if outputPath == "" {
		outputPath = "stdout"
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{outputPath},
		ErrorOutputPaths:  []string{"stderr"},
	}
	if cfg.Service != "" {
		zapConfig.InitialFields = map[string]interface{}{"service": cfg.Service}
	}

	var opts []zap.Option
	if len(overrides) > 0 {
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return newComponentCore(core, level, overrides)
		}))
	}

	logger, err := zapConfig.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func parseLevel(raw, what string) zapcore.Level {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return zapcore.InfoLevel
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		// логгер еще не создан
		fmt.Fprintf(os.Stderr, "Invalid %s '%s', using 'info'. Error: %v\n", what, raw, err)
		return zapcore.InfoLevel
	}
	return level
}

// ParseComponentLevels разбирает "Name=level,..." в карту уровней. Пустые и битые пары пропускаются.
func ParseComponentLevels(raw string) map[string]zapcore.Level {
	out := make(map[string]zapcore.Level)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, lvl, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			fmt.Fprintf(os.Stderr, "Invalid component level '%s', expected Name=level\n", pair)
			continue
		}
		out[name] = parseLevel(lvl, "level for "+name)
	}
	return out
}

// componentCore выбирает уровень по имени логгера записи.
// Для вложенных имен (Deck.export) действует самое длинное совпадающее имя.
type componentCore struct {
	zapcore.Core
	base      zapcore.Level
	overrides map[string]zapcore.Level
	min       zapcore.Level
}

func newComponentCore(core zapcore.Core, base zapcore.Level, overrides map[string]zapcore.Level) *componentCore {
	minLevel := base
	for _, l := range overrides {
		if l < minLevel {
			minLevel = l
		}
	}
	return &componentCore{Core: core, base: base, overrides: overrides, min: minLevel}
}

func (c *componentCore) levelFor(name string) zapcore.Level {
	for name != "" {
		if l, ok := c.overrides[name]; ok {
			return l
		}
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			break
		}
		name = name[:i]
	}
	return c.base
}

func (c *componentCore) Enabled(l zapcore.Level) bool {
	return l >= c.min
}

func (c *componentCore) With(fields []zapcore.Field) zapcore.Core {
	return &componentCore{Core: c.Core.With(fields), base: c.base, overrides: c.overrides, min: c.min}
}

func (c *componentCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if ent.Level < c.levelFor(ent.LoggerName) {
		return ce
	}
	return ce.AddCore(ent, c)
}
