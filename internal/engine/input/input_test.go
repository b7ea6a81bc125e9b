package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestHandleQuit(t *testing.T) {
	in := New()
	if !in.handle(&sdl.QuitEvent{Type: sdl.QUIT}) {
		t.Error("expected quit")
	}
	if len(in.Events()) != 1 || in.Events()[0].Type != EventQuit {
		t.Errorf("expected quit event, got %v", in.Events())
	}
}

func TestDragged(t *testing.T) {
	in := New()
	in.handle(&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, XRel: 3, YRel: -2, State: buttonMask(sdl.BUTTON_LEFT)})
	in.handle(&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, XRel: 4, YRel: 1, State: buttonMask(sdl.BUTTON_LEFT)})
	in.handle(&sdl.MouseMotionEvent{Type: sdl.MOUSEMOTION, XRel: 100, YRel: 100})

	dx, dy := in.Dragged(sdl.BUTTON_LEFT)
	if dx != 7 || dy != -1 {
		t.Errorf("expected drag 7,-1, got %d,%d", dx, dy)
	}

	dx, dy = in.Dragged(sdl.BUTTON_RIGHT)
	if dx != 0 || dy != 0 {
		t.Errorf("expected no right drag, got %d,%d", dx, dy)
	}
}

func TestWheel(t *testing.T) {
	in := New()
	in.handle(&sdl.MouseWheelEvent{Type: sdl.MOUSEWHEEL, Y: 2})
	in.handle(&sdl.MouseWheelEvent{Type: sdl.MOUSEWHEEL, Y: 1, Direction: sdl.MOUSEWHEEL_FLIPPED})

	if w := in.Wheel(); w != 1 {
		t.Errorf("expected wheel 1, got %v", w)
	}
}

func TestIsKeyPressed(t *testing.T) {
	in := New()
	in.handle(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_D}})
	in.handle(&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_A}})

	if !in.IsKeyPressed(sdl.SCANCODE_D) {
		t.Error("expected D pressed")
	}
	if in.IsKeyPressed(sdl.SCANCODE_A) {
		t.Error("expected key up not to count")
	}
}
