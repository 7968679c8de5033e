package logger

import "testing"

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "json info", level: "info", format: "json"},
		{name: "text debug", level: "debug", format: "text"},
		{name: "upper case level", level: "WARN", format: "json"},
		{name: "bad level", level: "verbose", format: "json", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewLogger(tt.level, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			log.With("component", "test").Info("logger works", "level", tt.level)
		})
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNop()
	log.Debug("ignored")
	log.Error("ignored", "error", "boom")
	if err := log.Sync(); err != nil {
		t.Errorf("Sync on nop logger failed: %v", err)
	}
}
