package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/vkframe/engine/assets/loaders"
	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/resources"
)

type AssetInfo struct {
	Path       string
	Type       resources.ResourceType
	LastLoaded time.Time
}

// ShaderProgram is a vertex and fragment stage pair loaded by name.
type ShaderProgram struct {
	Name     string
	Vertex   []uint32
	Fragment []uint32
}

// AssetManager indexes the shader directory and, once Watch is called,
// reports changed shaders on Changes. Only the watcher goroutine and the
// caller touch the index, under mutex.
type AssetManager struct {
	dir     string
	assets  map[string]AssetInfo
	loaders map[resources.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	changes  chan string
	errors   chan error
}

func NewAssetManager(dir string) (*AssetManager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	am := &AssetManager{
		dir:     dir,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[resources.ResourceType]Loader),
		changes: make(chan string, 16),
		errors:  make(chan error, 16),
		done:    make(chan struct{}),
	}
	am.registerLoader(resources.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(resources.ResourceTypeBinary, &loaders.BinaryLoader{})

	if err := am.index(); err != nil {
		return nil, err
	}
	return am, nil
}

// Watch starts the fsnotify goroutine.
func (am *AssetManager) Watch() error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	if am.fsnotify != nil {
		return nil
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsWatch.Add(am.dir); err != nil {
		fsWatch.Close()
		return err
	}
	am.fsnotify = fsWatch
	go am.start()
	core.LogInfo("Watching '%s' for shader changes.", am.dir)
	return nil
}

// Changes delivers the name of every shader program whose files changed.
// Sends never block; a full channel drops the notification.
func (am *AssetManager) Changes() <-chan string {
	return am.changes
}

func (am *AssetManager) Errors() <-chan error {
	return am.errors
}

func (am *AssetManager) Close() {
	if am.isClosed {
		return
	}
	am.isClosed = true
	if am.fsnotify == nil {
		return
	}
	close(am.done)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType resources.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadShaderProgram reads <dir>/<name>.vert.spv and <dir>/<name>.frag.spv.
func (am *AssetManager) LoadShaderProgram(name string) (ShaderProgram, error) {
	program := ShaderProgram{Name: name}
	for _, stage := range []string{"vert", "frag"} {
		path := filepath.Join(am.dir, fmt.Sprintf("%s.%s.spv", name, stage))
		res, err := am.LoadAsset(path, map[string]string{"name": name})
		if err != nil {
			return ShaderProgram{}, err
		}
		data := res.Data.(resources.ShaderResourceData)
		switch data.Stage {
		case resources.ShaderStageVertex:
			program.Vertex = data.Code
		case resources.ShaderStageFragment:
			program.Fragment = data.Code
		}
	}
	return program, nil
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(path string, params map[string]string) (*resources.Resource, error) {
	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, fmt.Errorf("asset not found: %s", path)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Load(path, params)
}

func (am *AssetManager) Asset(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	asset, ok := am.assets[path]
	return asset, ok
}

func (am *AssetManager) start() {
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if am.handleFileEvent(e.Name) == resources.ResourceTypeShader {
					am.notify(programName(e.Name))
				}
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())
			select {
			case am.errors <- err:
			default:
			}

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) notify(name string) {
	select {
	case am.changes <- name:
	default:
	}
}

func (am *AssetManager) index() error {
	entries, err := os.ReadDir(am.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			am.handleFileEvent(filepath.Join(am.dir, entry.Name()))
		}
	}
	return nil
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) resources.ResourceType {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return assetType
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = AssetInfo{
		Path: path,
		Type: assetType,
	}
	return assetType
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) resources.ResourceType {
	if filepath.Ext(path) != ".spv" {
		return resources.ResourceTypeNone
	}
	if loaders.StageFromPath(path) != resources.ShaderStageUnknown {
		return resources.ResourceTypeShader
	}
	return resources.ResourceTypeBinary
}

// programName strips the stage and .spv suffixes: shaders/tri.vert.spv -> tri.
func programName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".spv")
	return strings.TrimSuffix(base, filepath.Ext(base))
}
