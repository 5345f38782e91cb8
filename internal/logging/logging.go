// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package logging is a thin wrapper of zap logging library.
//
// Each package creates its logger once, next to its package docstring:
//
//	var logger = logging.New("pktq")
//
// The level is taken from PKTQ_LOG_<pkg> or, when that is unset, PKTQ_LOG.
// Only the first letter matters: D(ebug), I(nfo), W(arn), E(rror), F(atal).
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	rootMu sync.Mutex
	root   = zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zap.DebugLevel,
	))
	levels = map[string]zap.AtomicLevel{}
)

// New creates a logger initialized with the configured level of pkg.
func New(pkg string) *zap.Logger {
	return root.Named(pkg).WithOptions(zap.IncreaseLevel(Level(pkg)))
}

// Level returns the adjustable level of pkg, creating it from the
// environment on first use.
func Level(pkg string) zap.AtomicLevel {
	rootMu.Lock()
	defer rootMu.Unlock()
	al, ok := levels[pkg]
	if !ok {
		al = zap.NewAtomicLevelAt(ParseLevel(envLevel(pkg)))
		levels[pkg] = al
	}
	return al
}

// SetLevel changes the level of pkg at runtime.
func SetLevel(pkg, input string) {
	Level(pkg).SetLevel(ParseLevel(input))
}

// ParseLevel converts a level letter to a zap level; unknown input means info.
func ParseLevel(input string) zapcore.Level {
	if len(input) == 0 {
		return zapcore.InfoLevel
	}
	switch input[0] {
	case 'V', 'D', 'v', 'd':
		return zapcore.DebugLevel
	case 'W', 'w':
		return zapcore.WarnLevel
	case 'E', 'e':
		return zapcore.ErrorLevel
	case 'F', 'N', 'f', 'n':
		return zapcore.DPanicLevel
	}
	return zapcore.InfoLevel
}

func envLevel(pkg string) string {
	v, ok := os.LookupEnv("PKTQ_LOG_" + pkg)
	if !ok {
		v = os.Getenv("PKTQ_LOG")
	}
	return v
}
