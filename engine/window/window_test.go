package window

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform stays open for a fixed number of polls.
type fakePlatform struct {
	polls     int
	remaining int
	closed    bool
	destroyed bool
}

func (f *fakePlatform) surfaceDescriptor() *wgpu.SurfaceDescriptor { return &wgpu.SurfaceDescriptor{} }
func (f *fakePlatform) open() bool                                 { return !f.closed && f.remaining > 0 }
func (f *fakePlatform) requestClose()                              { f.closed = true }
func (f *fakePlatform) destroy()                                   { f.destroyed = true }

func (f *fakePlatform) pollEvents() bool {
	f.polls++
	f.remaining--
	return f.open()
}

func withFakePlatform(t *testing.T, fake *fakePlatform) {
	t.Helper()
	prev := openPlatform
	openPlatform = func(*engineWindow) (platformWindow, error) { return fake, nil }
	t.Cleanup(func() { openPlatform = prev })
}

func TestNewWindowRejectsInvalidSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 720},
		{"zero height", 1280, 0},
		{"negative", -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWindow(WithSize(tt.width, tt.height))
			require.Error(t, err)
			assert.Nil(t, w)
		})
	}
}

func TestWindowOptions(t *testing.T) {
	w := &engineWindow{}
	for _, opt := range []WindowBuilderOption{
		WithTitle("viewer"),
		WithSize(640, 480),
		WithResizable(false),
	} {
		opt(w)
	}
	assert.Equal(t, "viewer", w.title)
	assert.Equal(t, 640, w.width)
	assert.Equal(t, 480, w.height)
	assert.False(t, w.resizable)
}

func TestProcessMessagesRunsUpdateUntilClosed(t *testing.T) {
	fake := &fakePlatform{remaining: 4}
	withFakePlatform(t, fake)

	w, err := NewWindow()
	require.NoError(t, err)

	updates := 0
	w.SetUpdateCallback(func() { updates++ })
	w.ProcessMessages()

	assert.Equal(t, 4, fake.polls)
	assert.Equal(t, 3, updates, "the poll that observes the close does not update")
	assert.False(t, w.IsRunning())
}

func TestRequestCloseStopsLoop(t *testing.T) {
	fake := &fakePlatform{remaining: 100}
	withFakePlatform(t, fake)

	w, err := NewWindow()
	require.NoError(t, err)
	w.SetUpdateCallback(w.RequestClose)
	w.ProcessMessages()

	assert.Equal(t, 1, fake.polls)
}

func TestCloseTwice(t *testing.T) {
	fake := &fakePlatform{remaining: 1}
	withFakePlatform(t, fake)

	w, err := NewWindow()
	require.NoError(t, err)
	require.NotNil(t, w.SurfaceDescriptor())

	require.NoError(t, w.Close())
	assert.True(t, fake.destroyed)
	assert.Nil(t, w.SurfaceDescriptor())
	assert.False(t, w.IsRunning())
	assert.Error(t, w.Close())
	assert.NotPanics(t, w.RequestClose)
}

func TestEventDispatch(t *testing.T) {
	w := &engineWindow{}

	// no callbacks registered
	assert.NotPanics(t, func() {
		w.handlers.dispatchKey(1, true)
		w.handlers.dispatchButton(1, 2, false)
		w.handlers.dispatchMove(1, 2)
		w.resized(10, 20)
	})

	var downs, ups []uint32
	var moves [][2]float32
	var size [2]int
	pressed := false
	w.SetKeyDownCallback(func(k uint32) { downs = append(downs, k) })
	w.SetKeyUpCallback(func(k uint32) { ups = append(ups, k) })
	w.SetPointerDownCallback(func(x, y float32) { pressed = true })
	w.SetPointerUpCallback(func(x, y float32) { pressed = false })
	w.SetPointerMoveCallback(func(x, y float32) { moves = append(moves, [2]float32{x, y}) })
	w.SetResizeCallback(func(width, height int) { size = [2]int{width, height} })

	w.handlers.dispatchKey(82, true)
	w.handlers.dispatchKey(82, false)
	w.handlers.dispatchButton(5, 6, true)
	assert.True(t, pressed)
	w.handlers.dispatchMove(7, 8)
	w.handlers.dispatchButton(7, 8, false)
	w.resized(800, 600)

	assert.Equal(t, []uint32{82}, downs)
	assert.Equal(t, []uint32{82}, ups)
	assert.False(t, pressed)
	assert.Equal(t, [][2]float32{{7, 8}}, moves)
	assert.Equal(t, [2]int{800, 600}, size)
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())
}
