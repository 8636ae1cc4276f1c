package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/vkframe/engine/resources"
)

type ShaderLoader struct {
	binary BinaryLoader
}

// Load reads a compiled SPIR-V stage. The stage comes from the file name:
// <name>.vert.spv or <name>.frag.spv.
func (sl *ShaderLoader) Load(path string, params map[string]string) (*resources.Resource, error) {
	stage := StageFromPath(path)
	if stage == resources.ShaderStageUnknown {
		return nil, fmt.Errorf("%s: cannot tell the shader stage from the file name", path)
	}

	res, err := sl.binary.Load(path, params)
	if err != nil {
		return nil, err
	}
	code := res.Data.([]uint32)
	if len(code) == 0 || code[0] != resources.SPIRVMagic {
		return nil, fmt.Errorf("%s: not a SPIR-V module", path)
	}

	res.Data = resources.ShaderResourceData{Stage: stage, Code: code}
	return res, nil
}

func (sl *ShaderLoader) Unload(resource *resources.Resource) error {
	return sl.binary.Unload(resource)
}

func StageFromPath(path string) resources.ShaderStage {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, ".vert.spv"):
		return resources.ShaderStageVertex
	case strings.HasSuffix(base, ".frag.spv"):
		return resources.ShaderStageFragment
	}
	return resources.ShaderStageUnknown
}
