package template

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of compiled templates kept when no size is given
const DefaultCacheSize = 256

// Engine renders Handlebars templates
type Engine struct {
	cache   *lru.Cache[string, *raymond.Template]
	helpers map[string]interface{}
	mu      sync.Mutex
}

// NewEngine creates a new template engine caching up to cacheSize compiled
// templates. A cacheSize of zero or less uses DefaultCacheSize.
func NewEngine(cacheSize int) *Engine {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, *raymond.Template](cacheSize)

	return &Engine{
		cache:   cache,
		helpers: helpers(),
	}
}

// Render renders a template with the given data
func (e *Engine) Render(templateStr string, data interface{}) (string, error) {
	tmpl, err := e.getTemplate(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to compile template: %w", err)
	}

	result, err := tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return result, nil
}

// getTemplate gets a compiled template from cache or compiles it
func (e *Engine) getTemplate(templateStr string) (*raymond.Template, error) {
	if tmpl, ok := e.cache.Get(templateStr); ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if tmpl, ok := e.cache.Get(templateStr); ok {
		return tmpl, nil
	}

	tmpl, err := raymond.Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	tmpl.RegisterHelpers(e.helpers)

	e.cache.Add(templateStr, tmpl)

	return tmpl, nil
}

// ValidateTemplate validates a template without rendering it
func (e *Engine) ValidateTemplate(templateStr string) error {
	_, err := raymond.Parse(templateStr)
	return err
}

// ClearCache clears the compiled template cache
func (e *Engine) ClearCache() {
	e.cache.Purge()
}

// CacheSize returns the number of compiled templates held in the cache
func (e *Engine) CacheSize() int {
	return e.cache.Len()
}

func helpers() map[string]interface{} {
	return map[string]interface{}{
		"uppercase": func(str string) string {
			return strings.ToUpper(str)
		},
		"lowercase": func(str string) string {
			return strings.ToLower(str)
		},
		// default returns the fallback if the first arg is empty
		"default": func(value interface{}, defaultValue interface{}) interface{} {
			if value == nil || value == "" {
				return defaultValue
			}
			return value
		},
		"eq": func(a, b interface{}) bool {
			return a == b
		},
		"round": func(value interface{}, places interface{}) string {
			f, ok := toFloat(value)
			if !ok {
				return fmt.Sprint(value)
			}
			p, ok := toFloat(places)
			if !ok || p < 0 {
				p = 0
			}
			return strconv.FormatFloat(f, 'f', int(p), 64)
		},
		"number": func(value interface{}) string {
			f, ok := toFloat(value)
			if !ok {
				return fmt.Sprint(value)
			}
			return strconv.FormatFloat(f, 'g', -1, 64)
		},
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
