package domain

// Surface names one of the two Ghost REST APIs.
type Surface string

const (
	SurfaceContent Surface = "content"
	SurfaceAdmin   Surface = "admin"
)

func (s Surface) Valid() bool {
	return s == SurfaceContent || s == SurfaceAdmin
}

// Mode controls which tool families the server exposes.
type Mode string

const (
	ModeReadOnly  Mode = "readonly"
	ModeReadWrite Mode = "readwrite"
	ModeAuto      Mode = "auto"
)

// AllowsWrites reports whether admin tools may be registered in this mode.
func (m Mode) AllowsWrites() bool {
	return m == ModeReadWrite || m == ModeAuto
}
