package input

import (
	"bytes"
	"image"
	"io"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/rehearsal-bot/internal/config"
	"jordanella.com/rehearsal-bot/internal/window"
)

type fixedWindows struct {
	bounds image.Rectangle
	err    error
}

func (f fixedWindows) Find(window.Query) (window.Target, error) {
	return window.Target{Handle: 1}, nil
}
func (f fixedWindows) Exists(window.Target) bool { return true }
func (f fixedWindows) Focus(window.Target) error { return nil }
func (f fixedWindows) ClientBounds(window.Target) (image.Rectangle, error) {
	return f.bounds, f.err
}

// fakeDevice records writes and replays a canned response
type fakeDevice struct {
	written bytes.Buffer
	reply   *bytes.Buffer
}

func (d *fakeDevice) Write(p []byte) (int, error) { return d.written.Write(p) }
func (d *fakeDevice) Read(p []byte) (int, error) {
	if d.reply.Len() == 0 {
		return 0, io.EOF
	}
	return d.reply.Read(p)
}

func TestSerialClickSendsDesktopCoordinates(t *testing.T) {
	dev := &fakeDevice{reply: bytes.NewBufferString("click received\n")}
	windows := fixedWindows{bounds: image.Rect(100, 200, 500, 600)}
	c := NewSerialClicker(dev, windows, time.Second)

	require.NoError(t, c.Click(window.Target{Handle: 1}, 0.5, 0.25))
	assert.Equal(t, "click:300,300\n", dev.written.String())
}

func TestSerialClickTimesOutWithoutAck(t *testing.T) {
	dev := &fakeDevice{reply: bytes.NewBufferString("busy\n")}
	c := NewSerialClicker(dev, fixedWindows{bounds: image.Rect(0, 0, 10, 10)}, 50*time.Millisecond)

	err := c.Click(window.Target{Handle: 1}, 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not acknowledge")
}

func TestSerialClickFailsWhenWindowGone(t *testing.T) {
	dev := &fakeDevice{reply: &bytes.Buffer{}}
	c := NewSerialClicker(dev, fixedWindows{err: window.ErrNotFound}, time.Second)

	err := c.Click(window.Target{Handle: 1}, 0.5, 0.5)
	assert.ErrorIs(t, err, window.ErrNotFound)
	assert.Zero(t, dev.written.Len())
}

func TestNewRejectsUnknownMethod(t *testing.T) {
	_, err := New(config.InputConfig{Method: "telepathy"}, fixedWindows{})
	assert.Error(t, err)
}

func TestNewDefaultsToSendInput(t *testing.T) {
	c, err := New(config.InputConfig{Method: config.InputSendInput}, fixedWindows{})
	require.NoError(t, err)
	assert.IsType(t, &SendInputClicker{}, c)
}

func TestMouseInputMatchesWin32Layout(t *testing.T) {
	// sizeof(INPUT) is 28 on 32-bit Windows and 40 on 64-bit
	want := uintptr(28)
	if unsafe.Sizeof(uintptr(0)) == 8 {
		want = 40
	}
	assert.Equal(t, want, unsafe.Sizeof(mouseInput{}))
	assert.Equal(t, unsafe.Alignof(uintptr(0)), unsafe.Offsetof(mouseInput{}.Mouse))
}
