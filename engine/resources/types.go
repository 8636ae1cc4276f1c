package resources

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown resource type, ignored by the asset manager. */
	ResourceTypeNone ResourceType = iota
	/** @brief Binary resource type. */
	ResourceTypeBinary
	/** @brief Compiled SPIR-V shader stage. */
	ResourceTypeShader
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeBinary:
		return "binary"
	case ResourceTypeShader:
		return "shader"
	}
	return "none"
}

/** @brief The magic number every SPIR-V module starts with. */
const SPIRVMagic uint32 = 0x07230203

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}

type ShaderStage uint8

const (
	ShaderStageUnknown ShaderStage = iota
	ShaderStageVertex
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	}
	return "unknown"
}

/**
 * @brief A structure to hold shader resource data.
 */
type ShaderResourceData struct {
	/** @brief The pipeline stage this module is for. */
	Stage ShaderStage
	/** @brief The SPIR-V words. */
	Code []uint32
}
