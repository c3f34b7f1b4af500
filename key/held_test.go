package key

import "testing"

func TestHeldPressRelease(t *testing.T) {
	h := NewHeld()

	h.Press("a")
	h.Press("b")
	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}
	if !h.IsHeld("a") || !h.IsHeld("b") {
		t.Error("a and b should be held")
	}

	h.Release("a")
	if h.IsHeld("a") {
		t.Error("a should be released")
	}
	if !h.IsHeld("b") {
		t.Error("b should still be held")
	}
}

func TestHeldIgnoresModifiers(t *testing.T) {
	h := NewHeld()

	h.Press("ctrl")
	h.Press("shift")
	h.Press("control")
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after modifier presses", h.Len())
	}
}

func TestHeldClear(t *testing.T) {
	h := NewHeld()

	h.Press("a")
	h.Press("b")
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Clear", h.Len())
	}
}

func TestHeldPressedWith(t *testing.T) {
	h := NewHeld()

	h.Press("a")
	h.Press("b")

	got := h.PressedWith(ModCtrl)
	if !got.Equals(NewSet("ctrl", "a", "b")) {
		t.Errorf("PressedWith(ctrl) = %v, want [ctrl a b]", got.Tokens())
	}

	got = h.PressedWith(ModNone)
	if !got.Equals(NewSet("a", "b")) {
		t.Errorf("PressedWith(none) = %v, want [a b]", got.Tokens())
	}
}

func TestHeldCaseInsensitive(t *testing.T) {
	h := NewHeld()

	h.Press("A")
	if !h.IsHeld("a") {
		t.Error("held keys should be case-insensitive")
	}
	h.Release("a")
	if h.IsHeld("A") {
		t.Error("release should be case-insensitive")
	}
}
