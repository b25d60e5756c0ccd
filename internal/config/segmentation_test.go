package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDefaultSegmentationConfig(t *testing.T) {
	cfg := DefaultSegmentationConfig()

	if cfg.MaxContourVertices == nil || *cfg.MaxContourVertices != 65536 {
		t.Errorf("Expected MaxContourVertices 65536, got %v", cfg.MaxContourVertices)
	}
	if cfg.FrustumShortcut == nil || *cfg.FrustumShortcut != true {
		t.Errorf("Expected FrustumShortcut true, got %v", cfg.FrustumShortcut)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if cfg.GetClassifyWorkers() != runtime.GOMAXPROCS(0) {
		t.Errorf("GetClassifyWorkers() = %d, want GOMAXPROCS", cfg.GetClassifyWorkers())
	}
}

func TestEmptyConfigGetters(t *testing.T) {
	cfg := EmptySegmentationConfig()

	if got := cfg.GetMaxContourVertices(); got != 65536 {
		t.Errorf("GetMaxContourVertices() = %d, want 65536", got)
	}
	if got := cfg.GetDefaultMode(); got != "polygon" {
		t.Errorf("GetDefaultMode() = %q, want polygon", got)
	}
	if got := cfg.GetClassifyChunkSize(); got != 4096 {
		t.Errorf("GetClassifyChunkSize() = %d, want 4096", got)
	}
	if !cfg.GetFrustumShortcut() {
		t.Error("GetFrustumShortcut() = false, want true")
	}
	if !cfg.GetExport3D() {
		t.Error("GetExport3D() = false, want true")
	}
	if cfg.GetApplyGlobalShift() {
		t.Error("GetApplyGlobalShift() = true, want false")
	}
	if cfg.GetDebugLogging() {
		t.Error("GetDebugLogging() = true, want false")
	}
}

func TestLoadSegmentationConfig_JSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "segmentation.json")

	testJSON := `{
  "max_contour_vertices": 128,
  "classify_workers": 3,
  "frustum_shortcut": false,
  "default_mode": "rectangle"
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadSegmentationConfig(configPath)
	if err != nil {
		t.Fatalf("LoadSegmentationConfig failed: %v", err)
	}

	if cfg.GetMaxContourVertices() != 128 {
		t.Errorf("GetMaxContourVertices() = %d, want 128", cfg.GetMaxContourVertices())
	}
	if cfg.GetClassifyWorkers() != 3 {
		t.Errorf("GetClassifyWorkers() = %d, want 3", cfg.GetClassifyWorkers())
	}
	if cfg.GetFrustumShortcut() {
		t.Error("GetFrustumShortcut() = true, want false")
	}
	if cfg.GetDefaultMode() != "rectangle" {
		t.Errorf("GetDefaultMode() = %q, want rectangle", cfg.GetDefaultMode())
	}
	// Omitted fields keep their defaults
	if cfg.GetClassifyChunkSize() != 4096 {
		t.Errorf("GetClassifyChunkSize() = %d, want 4096", cfg.GetClassifyChunkSize())
	}
}

func TestLoadSegmentationConfig_YAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "segmentation.yaml")

	testYAML := "classify_chunk_size: 512\nexport_3d: false\napply_global_shift: true\n"
	if err := os.WriteFile(configPath, []byte(testYAML), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadSegmentationConfig(configPath)
	if err != nil {
		t.Fatalf("LoadSegmentationConfig failed: %v", err)
	}
	if cfg.GetClassifyChunkSize() != 512 {
		t.Errorf("GetClassifyChunkSize() = %d, want 512", cfg.GetClassifyChunkSize())
	}
	if cfg.GetExport3D() {
		t.Error("GetExport3D() = true, want false")
	}
	if !cfg.GetApplyGlobalShift() {
		t.Error("GetApplyGlobalShift() = false, want true")
	}
}

func TestLoadSegmentationConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad extension", "config.txt", "{}", "extension"},
		{"bad json", "config.json", "{", "parse config JSON"},
		{"bad yaml", "config.yaml", "max_contour_vertices: [", "parse config YAML"},
		{"too few vertices", "config.json", `{"max_contour_vertices": 3}`, "max_contour_vertices"},
		{"negative workers", "config.json", `{"classify_workers": -1}`, "classify_workers"},
		{"zero chunk", "config.json", `{"classify_chunk_size": 0}`, "classify_chunk_size"},
		{"unknown mode", "config.json", `{"default_mode": "lasso"}`, "default_mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name+"-"+tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}
			_, err := LoadSegmentationConfig(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadSegmentationConfig_MissingFile(t *testing.T) {
	_, err := LoadSegmentationConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRepositoryDefaultsFile(t *testing.T) {
	cfg, err := LoadSegmentationConfig(filepath.Join("..", "..", DefaultConfigPath))
	if err != nil {
		t.Fatalf("failed to load %s: %v", DefaultConfigPath, err)
	}
	defaults := DefaultSegmentationConfig()
	if cfg.GetMaxContourVertices() != defaults.GetMaxContourVertices() {
		t.Errorf("max_contour_vertices = %d, want %d", cfg.GetMaxContourVertices(), defaults.GetMaxContourVertices())
	}
	if cfg.GetClassifyChunkSize() != defaults.GetClassifyChunkSize() {
		t.Errorf("classify_chunk_size = %d, want %d", cfg.GetClassifyChunkSize(), defaults.GetClassifyChunkSize())
	}
}
