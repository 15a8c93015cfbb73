package memory_test

import (
	"testing"

	"github.com/warp/compliance-engine/rentroll"
	"github.com/warp/compliance-engine/store/memory"
	"github.com/warp/compliance-engine/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) rentroll.Store {
		return memory.New()
	})
}
