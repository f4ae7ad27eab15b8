package secure

import (
	"os"
	"strings"
	"sync"
)

var (
	// envCache caches environment variables to avoid repeated system calls
	envCache     = make(map[string]string)
	envCacheMu   sync.RWMutex
	envCacheInit sync.Once
)

// GetEnvVar safely retrieves an environment variable
// It caches values to improve performance and reduce system calls
func GetEnvVar(name string) string {
	envCacheInit.Do(func() {
		envCacheMu.Lock()
		for _, env := range os.Environ() {
			if idx := strings.IndexByte(env, '='); idx >= 0 {
				envCache[env[:idx]] = env[idx+1:]
			}
		}
		envCacheMu.Unlock()
	})

	envCacheMu.RLock()
	if val, ok := envCache[name]; ok {
		envCacheMu.RUnlock()
		return val
	}
	envCacheMu.RUnlock()

	val := os.Getenv(name)

	envCacheMu.Lock()
	envCache[name] = val
	envCacheMu.Unlock()

	return val
}

// SetEnvVar sets an environment variable and updates the cache
func SetEnvVar(name, value string) error {
	err := os.Setenv(name, value)
	if err != nil {
		return err
	}

	envCacheMu.Lock()
	envCache[name] = value
	envCacheMu.Unlock()

	return nil
}
