// Package guard switches binaries into test mode when imported from a test.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("BALANCESHEET_TEST_MODE") == "" {
			_ = os.Setenv("BALANCESHEET_TEST_MODE", "1")
		}
	})
}
