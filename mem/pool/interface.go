package pool

import "github.com/joshuapare/sizepool/mem/sysmem"

// SystemAllocator is a type alias for the backend interface defined in mem/sysmem.
// The alias lets callers plug in any sysmem backend (or their own) without
// importing two packages for one interface.
type SystemAllocator = sysmem.Allocator
