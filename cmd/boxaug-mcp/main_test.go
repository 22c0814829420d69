package main

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"debug", true, logrus.DebugLevel, false},
		{"default", false, logrus.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := initLogger(tt.debug)
			if logger.GetLevel() != tt.wantLevel {
				t.Errorf("level: got %v, want %v", logger.GetLevel(), tt.wantLevel)
			}
			if logger.Out != os.Stderr {
				t.Error("logger should write to stderr")
			}
			_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
			if isJSON != tt.wantJSON {
				t.Errorf("JSON formatter: got %v, want %v", isJSON, tt.wantJSON)
			}
		})
	}
}
