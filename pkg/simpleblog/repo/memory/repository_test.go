package memory_test

import (
	"testing"

	"github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/repotest"
)

func TestMemoryRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repotest.Store {
		return memory.New()
	})
}
