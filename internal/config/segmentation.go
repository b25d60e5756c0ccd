package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical segmentation defaults file.
const DefaultConfigPath = "config/segmentation.defaults.json"

// SegmentationConfig holds the tunables of the interactive segmentation tool.
// Every field is optional; the Get* accessors supply the defaults so a partial
// file is always safe to load.
type SegmentationConfig struct {
	// Contour builder
	MaxContourVertices *int    `json:"max_contour_vertices,omitempty" yaml:"max_contour_vertices,omitempty"`
	DefaultMode        *string `json:"default_mode,omitempty" yaml:"default_mode,omitempty"` // "polygon" or "rectangle"

	// Classifier
	ClassifyWorkers   *int  `json:"classify_workers,omitempty" yaml:"classify_workers,omitempty"` // 0 = GOMAXPROCS
	ClassifyChunkSize *int  `json:"classify_chunk_size,omitempty" yaml:"classify_chunk_size,omitempty"`
	FrustumShortcut   *bool `json:"frustum_shortcut,omitempty" yaml:"frustum_shortcut,omitempty"`

	// Polyline export
	Export3D         *bool `json:"export_3d,omitempty" yaml:"export_3d,omitempty"`
	ApplyGlobalShift *bool `json:"apply_global_shift,omitempty" yaml:"apply_global_shift,omitempty"`

	DebugLogging *bool `json:"debug_logging,omitempty" yaml:"debug_logging,omitempty"`
}

func ptrBool(v bool) *bool       { return &v }
func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }

// EmptySegmentationConfig returns a config with every field unset.
func EmptySegmentationConfig() *SegmentationConfig {
	return &SegmentationConfig{}
}

// DefaultSegmentationConfig returns a config with every field populated with
// its default value.
func DefaultSegmentationConfig() *SegmentationConfig {
	return &SegmentationConfig{
		MaxContourVertices: ptrInt(65536),
		DefaultMode:        ptrString("polygon"),
		ClassifyWorkers:    ptrInt(0),
		ClassifyChunkSize:  ptrInt(4096),
		FrustumShortcut:    ptrBool(true),
		Export3D:           ptrBool(true),
		ApplyGlobalShift:   ptrBool(false),
		DebugLogging:       ptrBool(false),
	}
}

// LoadSegmentationConfig loads a SegmentationConfig from a JSON or YAML file.
// The format is chosen from the file extension.
func LoadSegmentationConfig(path string) (*SegmentationConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySegmentationConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *SegmentationConfig) Validate() error {
	if c.MaxContourVertices != nil && *c.MaxContourVertices < 4 {
		return fmt.Errorf("max_contour_vertices must be at least 4, got %d", *c.MaxContourVertices)
	}
	if c.ClassifyWorkers != nil && *c.ClassifyWorkers < 0 {
		return fmt.Errorf("classify_workers must be non-negative, got %d", *c.ClassifyWorkers)
	}
	if c.ClassifyChunkSize != nil && *c.ClassifyChunkSize <= 0 {
		return fmt.Errorf("classify_chunk_size must be positive, got %d", *c.ClassifyChunkSize)
	}
	if c.DefaultMode != nil {
		switch *c.DefaultMode {
		case "", "polygon", "rectangle":
		default:
			return fmt.Errorf("default_mode must be 'polygon' or 'rectangle', got %q", *c.DefaultMode)
		}
	}
	return nil
}

// GetMaxContourVertices returns the max_contour_vertices value or the default.
func (c *SegmentationConfig) GetMaxContourVertices() int {
	if c.MaxContourVertices == nil {
		return 65536
	}
	return *c.MaxContourVertices
}

// GetDefaultMode returns the default_mode value or "polygon".
func (c *SegmentationConfig) GetDefaultMode() string {
	if c.DefaultMode == nil || *c.DefaultMode == "" {
		return "polygon"
	}
	return *c.DefaultMode
}

// GetClassifyWorkers returns the number of classification workers. Zero or
// unset resolves to GOMAXPROCS.
func (c *SegmentationConfig) GetClassifyWorkers() int {
	if c.ClassifyWorkers == nil || *c.ClassifyWorkers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return *c.ClassifyWorkers
}

// GetClassifyChunkSize returns the classify_chunk_size value or the default.
func (c *SegmentationConfig) GetClassifyChunkSize() int {
	if c.ClassifyChunkSize == nil {
		return 4096
	}
	return *c.ClassifyChunkSize
}

// GetFrustumShortcut returns the frustum_shortcut value or the default.
func (c *SegmentationConfig) GetFrustumShortcut() bool {
	if c.FrustumShortcut == nil {
		return true
	}
	return *c.FrustumShortcut
}

// GetExport3D returns the export_3d value or the default.
func (c *SegmentationConfig) GetExport3D() bool {
	if c.Export3D == nil {
		return true
	}
	return *c.Export3D
}

// GetApplyGlobalShift returns the apply_global_shift value or the default.
// It only matters when more than one segmented entity is shifted.
func (c *SegmentationConfig) GetApplyGlobalShift() bool {
	if c.ApplyGlobalShift == nil {
		return false
	}
	return *c.ApplyGlobalShift
}

// GetDebugLogging returns the debug_logging value or the default.
func (c *SegmentationConfig) GetDebugLogging() bool {
	if c.DebugLogging == nil {
		return false
	}
	return *c.DebugLogging
}
