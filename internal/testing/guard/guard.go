// Package guard forces test mode before any package under test touches
// runtime side effects. Import it for side effects from test files.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("FITLEAGUE_TEST_MODE") == "" {
			_ = os.Setenv("FITLEAGUE_TEST_MODE", "1")
		}
	})
}
