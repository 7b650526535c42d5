package gcptr

import (
	"fmt"

	"github.com/vic4key/mark-sweep-smart-pointers/internal/gclog"
)

// Config is a flat key-value bag, mirroring the style of tunables the
// rest of the ecosystem passes around as map[string]interface{} rather
// than a bespoke struct.
type Config map[string]interface{}

// Default returns a Config with this package's built-in defaults.
func Default() Config {
	return Config{
		"gc.threshold": int64(100 * 1024),
		"gc.log.level": "info",
	}
}

func (c Config) Int64(key string) int64 {
	value, ok := c[key]
	if !ok {
		panicerr("missing config %q", key)
	}
	switch val := value.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	}
	panicerr("config %q not a number: %T", key, value)
	return 0
}

func (c Config) String(key string) string {
	value, ok := c[key]
	if !ok {
		panicerr("missing config %q", key)
	}
	val, ok := value.(string)
	if !ok {
		panicerr("config %q not a string: %T", key, value)
	}
	return val
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Sprintf(fmsg, args...))
}

// Apply pushes c's values into the package's live collector state:
// the allocation threshold and the logger's verbosity.
func (c Config) Apply() {
	CollectThreshold(c.Int64("gc.threshold"))
	gclog.SetLevel(c.String("gc.log.level"))
}
