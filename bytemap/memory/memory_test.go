package memory

import (
	"testing"

	"github.com/jmosbacher/igit-go/bytemap"
	"github.com/jmosbacher/igit-go/bytemap/bytemaptest"
)

type builder struct{}

func (builder) Build(t *testing.T) bytemap.ByteMap {
	return New()
}

func TestMemoryStorage(t *testing.T) {
	bytemaptest.Run(t, builder{})
}
