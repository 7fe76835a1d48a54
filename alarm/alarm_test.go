package alarm

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArmFiresHandlerAtDeadline(t *testing.T) {
	var fired int32
	start := time.Now()
	w := Arm(start.Add(20*time.Millisecond), func() {
		atomic.StoreInt32(&fired, 1)
	})
	defer w.Cancel()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&fired) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestCancelBeforeFirePreventsHandler(t *testing.T) {
	var fired int32
	w := Arm(time.Now().Add(time.Hour), func() {
		atomic.StoreInt32(&fired, 1)
	})
	w.Cancel()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestCancelAfterFireWaitsForHandlerCompletion(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var completed int32
	w := Arm(time.Now(), func() {
		close(started)
		<-release
		atomic.StoreInt32(&completed, 1)
	})
	<-started
	close(release)
	w.Cancel()
	assert.Equal(t, int32(1), atomic.LoadInt32(&completed))
}
