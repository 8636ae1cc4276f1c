package assets

import "github.com/spaghettifunk/vkframe/engine/resources"

type Loader interface {
	Load(path string, params map[string]string) (*resources.Resource, error)
	Unload(resource *resources.Resource) error
}
