package ir

// ArrayVariable is a virtually-addressable register vector accessible with
// relative addressing (spec.md §3.1 "Array variable").
type ArrayVariable struct {
	ID        uint32
	Length    uint32
	Half      bool // element size: half vs full register.
	LastWrite *RegisterOperand

	// Assigned post-RA.
	Base       uint32
	PhysAssign uint32
}
