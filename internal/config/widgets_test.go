package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeWidgetsFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "widgets.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadWidgetFileEmptyPath(t *testing.T) {
	file, err := LoadWidgetFile("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(file.Widgets) != 0 {
		t.Fatalf("expected no overrides, got %+v", file.Widgets)
	}
}

func TestLoadWidgetFileParsesOverrides(t *testing.T) {
	path := writeWidgetsFile(t, `
widgets:
  injuries:
    url: http://localhost:8000/api/injuries?source=espn
    interval: 45m
  standings:
    enabled: false
`)
	file, err := LoadWidgetFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	inj := file.Widgets["injuries"]
	if inj.URL != "http://localhost:8000/api/injuries?source=espn" || inj.Interval != 45*time.Minute {
		t.Fatalf("unexpected injuries override %+v", inj)
	}
	st := file.Widgets["standings"]
	if st.Enabled == nil || *st.Enabled {
		t.Fatalf("expected standings disabled, got %+v", st)
	}
}

func TestLoadWidgetFileRejectsInvalidValues(t *testing.T) {
	path := writeWidgetsFile(t, `
widgets:
  scores:
    url: not a url
`)
	if _, err := LoadWidgetFile(path); err == nil {
		t.Fatalf("expected validation error")
	}

	short := writeWidgetsFile(t, `
widgets:
  scores:
    interval: 5s
`)
	if _, err := LoadWidgetFile(short); err == nil {
		t.Fatalf("expected interval validation error")
	}
}

func TestLoadWidgetFileErrors(t *testing.T) {
	if _, err := LoadWidgetFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
	if _, err := LoadWidgetFile(writeWidgetsFile(t, "widgets: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
