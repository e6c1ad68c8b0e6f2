package config

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrRootConfigNotFound = errors.New("root configuration file not found")

// Loader reads configuration files from a file system. Besides the root
// configuration file, directories on the way to a document may carry
// their own file overriding the root one.
type Loader struct {
	// configRootPath is the directory holding the root configuration
	// file, typically the current working directory.
	configRootPath fs.FS

	// configName and configType form the configuration file name.
	configName string
	configType string

	logger *zap.Logger
}

type LoaderOption func(*Loader)

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

func NewLoader(configName, configType string, configRootPath fs.FS, opts ...LoaderOption) *Loader {
	if configName == "" {
		panic("config name is not set")
	}

	l := &Loader{
		configRootPath: configRootPath,
		configName:     configName,
		configType:     configType,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = zap.NewNop()
	}

	return l
}

func (l *Loader) configFullName() string {
	if l.configType == "" {
		return l.configName
	}
	return l.configName + "." + l.configType
}

func (l *Loader) RootConfig() ([]byte, error) {
	data, err := fs.ReadFile(l.configRootPath, l.configFullName())
	if err != nil {
		return nil, ErrRootConfigNotFound
	}
	return data, nil
}

// Load returns the configuration applying to name, a document path
// relative to the root. Without any configuration file the defaults
// are returned.
func (l *Loader) Load(name string) (*Config, error) {
	chain, err := l.FindConfigChain(name)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		l.logger.Debug("no configuration files found; using defaults")
		return Default(), nil
	}
	return ParseYAMLChain(chain...)
}

// FindConfigChain returns the contents of the root configuration file
// followed by the nested ones on the way to name, outermost first.
func (l *Loader) FindConfigChain(name string) ([][]byte, error) {
	paths, err := l.findConfigFilesOnPath(name)
	if err != nil {
		return nil, err
	}
	return l.readFiles(paths...)
}

func (l *Loader) findConfigFilesOnPath(name string) (result []string, _ error) {
	dir, err := l.parsePath(name)
	if err != nil {
		return nil, err
	}

	configFullName := l.configFullName()

	_, err = fs.Stat(l.configRootPath, configFullName)
	if err == nil {
		result = append(result, configFullName)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.WithStack(err)
	}

	fragments := strings.Split(filepath.ToSlash(dir), "/")
	if len(fragments) > 0 && fragments[0] == "." {
		fragments = fragments[1:]
	}

	curDir := ""
	for _, fragment := range fragments {
		// fs.FS paths always use forward slashes.
		curDir = path.Join(curDir, fragment)

		configPath := path.Join(curDir, configFullName)
		_, err := fs.Stat(l.configRootPath, configPath)
		if err == nil {
			result = append(result, configPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.WithStack(err)
		}
	}

	l.logger.Debug("found config files on path", zap.String("name", name), zap.Strings("files", result))

	return result, nil
}

// parsePath returns the directory of name. Names that do not exist in
// the file system, like stdin or a URL, resolve to the root.
func (l *Loader) parsePath(name string) (string, error) {
	if name == "" {
		return ".", nil
	}
	name = filepath.ToSlash(filepath.Clean(name))
	if !fs.ValidPath(name) {
		return ".", nil
	}

	info, err := fs.Stat(l.configRootPath, name)
	if errors.Is(err, fs.ErrNotExist) {
		return ".", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to get the path info for %q", name)
	}

	if info.IsDir() {
		return name, nil
	}
	return path.Dir(name), nil
}

func (l *Loader) readFiles(paths ...string) (result [][]byte, _ error) {
	for _, p := range paths {
		data, err := fs.ReadFile(l.configRootPath, p)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", p)
		}
		result = append(result, data)
	}
	return result, nil
}
