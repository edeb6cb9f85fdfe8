package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAcquireAfterCloseDoesNotLaunch(t *testing.T) {
	p := NewPool(2, "", "sitelens-test", zap.NewNop())
	assert.NoError(t, p.Close())

	_, err := p.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	p := NewPool(1, "", "sitelens-test", zap.NewNop())
	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}

func TestReleaseNilIsNoop(t *testing.T) {
	p := NewPool(1, "", "sitelens-test", zap.NewNop())
	defer p.Close()

	p.Release(nil)
}

func TestNewPoolClampsSize(t *testing.T) {
	p := NewPool(0, "", "sitelens-test", zap.NewNop())
	defer p.Close()

	assert.Equal(t, 1, p.size)
	assert.Equal(t, 1, cap(p.handles))
}
