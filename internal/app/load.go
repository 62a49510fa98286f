package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/tsdat/internal/config"
	"github.com/vk/tsdat/internal/hclconfig"
	"github.com/vk/tsdat/internal/yamlconfig"
)

// loaderFor picks the configuration loader from the pipeline file's extension.
func loaderFor(path string) (config.Loader, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yamlconfig.NewLoader(), nil
	case ".hcl":
		return hclconfig.NewLoader(), nil
	default:
		return nil, fmt.Errorf("unsupported pipeline file extension '%s': use .yaml, .yml or .hcl", ext)
	}
}
