package cost

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrCostExists   = errors.New("cost function already registered")
	ErrCostNotFound = errors.New("cost function not found")
)

var costRegistry = struct {
	mu sync.RWMutex
	m  map[string]Func
}{
	m: make(map[string]Func),
}

func init() {
	initializeBuiltInCosts()
}

func initializeBuiltInCosts() {
	MustRegister(MSE{})
	MustRegister(SSE{})
}

// Register adds fn under its lower-cased Name.
func Register(fn Func) error {
	if fn == nil {
		return errors.New("cost function is required")
	}
	name := normalize(fn.Name())
	if name == "" {
		return errors.New("cost function name is required")
	}

	costRegistry.mu.Lock()
	defer costRegistry.mu.Unlock()

	if _, exists := costRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrCostExists, name)
	}
	costRegistry.m[name] = fn
	return nil
}

func MustRegister(fn Func) {
	if err := Register(fn); err != nil {
		panic(err)
	}
}

// Get resolves a cost name case-insensitively.
func Get(name string) (Func, error) {
	costRegistry.mu.RLock()
	fn, ok := costRegistry.m[normalize(name)]
	costRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCostNotFound, name)
	}
	return fn, nil
}

func List() []string {
	costRegistry.mu.RLock()
	defer costRegistry.mu.RUnlock()

	names := make([]string, 0, len(costRegistry.m))
	for name := range costRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func resetCostRegistryForTests() {
	costRegistry.mu.Lock()
	costRegistry.m = make(map[string]Func)
	costRegistry.mu.Unlock()
	initializeBuiltInCosts()
}
