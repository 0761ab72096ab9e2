package xlog

import (
	"go.uber.org/zap/zapcore"
)

type xLogCore interface {
	build(
		lvlEnabler zapcore.LevelEnabler,
		encoder LogEncoderType,
		writer LogOutWriterType,
		lvlEnc zapcore.LevelEncoder,
		tsEnc zapcore.TimeEncoder,
	) (zapcore.Core, error)
}

var (
	_ xLogCore = (*consoleCore)(nil)
	_ xLogCore = (*wrappedCore)(nil)
)

type consoleCore struct{}

func (cc *consoleCore) build(
	lvlEnabler zapcore.LevelEnabler,
	encoder LogEncoderType,
	writer LogOutWriterType,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) (zapcore.Core, error) {
	config := zapcore.EncoderConfig{
		MessageKey:    "msg",
		LevelKey:      "lvl",
		EncodeLevel:   lvlEnc,
		TimeKey:       "ts",
		EncodeTime:    tsEnc,
		CallerKey:     "callAt",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		FunctionKey:   "fn",
		NameKey:       "component",
		EncodeName:    zapcore.FullNameEncoder,
		StacktraceKey: coreKeyIgnored,
	}
	return zapcore.NewCore(getEncoderByType(encoder)(config), getOutWriterByType(writer), lvlEnabler), nil
}

// wrappedCore puts an external core, e.g. zaptest observer, under
// the xlogger dynamic level.
type wrappedCore struct {
	core zapcore.Core
}

func (wc *wrappedCore) build(
	lvlEnabler zapcore.LevelEnabler,
	_ LogEncoderType,
	_ LogOutWriterType,
	_ zapcore.LevelEncoder,
	_ zapcore.TimeEncoder,
) (zapcore.Core, error) {
	return zapcore.NewIncreaseLevelCore(wc.core, lvlEnabler)
}
