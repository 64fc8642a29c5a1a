package logger

import (
	"path/filepath"
	"testing"
)

func TestNewWithDefaults(t *testing.T) {
	l, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) returned error: %v", err)
	}
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	l.Info("test message")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid console config",
			cfg:  Config{Level: "info", Format: "json", Output: "console"},
		},
		{
			name:    "invalid level",
			cfg:     Config{Level: "verbose", Format: "json", Output: "console"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			cfg:     Config{Level: "info", Format: "xml", Output: "console"},
			wantErr: true,
		},
		{
			name:    "file output without filename",
			cfg:     Config{Level: "info", Format: "json", Output: "file"},
			wantErr: true,
		},
		{
			name: "valid file output",
			cfg: Config{
				Level: "info", Format: "json", Output: "file",
				File: FileConfig{Filename: "x.log", MaxSize: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		Level:  "debug",
		Format: "json",
		Output: "file",
		File: FileConfig{
			Filename: filepath.Join(dir, "test.log"),
			MaxSize:  1,
		},
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	l.Info("written to file")
	_ = l.Sync()
}
