package input

const inputMouse = 0

// mouseInput mirrors the Win32 INPUT structure with a mouse payload. The
// union starts at pointer alignment, which mousePayload gets from ExtraInfo,
// so the layout is 28 bytes on 32-bit and 40 bytes on 64-bit Windows.
type mouseInput struct {
	Type  uint32
	Mouse mousePayload
}

// mousePayload mirrors MOUSEINPUT
type mousePayload struct {
	Dx        int32
	Dy        int32
	MouseData uint32
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}
