package layout

import "errors"

var (
	// ErrPanelNotFound means the panel is not wrapped by any element of the manager.
	ErrPanelNotFound = errors.New("panel not found in layout")
	// ErrCloneReadOnly means a structural edit targeted a generated repeat copy.
	ErrCloneReadOnly = errors.New("repeated copies cannot be edited")
	// ErrNoDropTarget means a rows or tabs layout has nothing to drop into.
	ErrNoDropTarget = errors.New("layout has no row or tab to drop into")
	// ErrNestingTooDeep means drop target resolution exceeded MaxNestingDepth.
	ErrNestingTooDeep = errors.New("layout nesting too deep")
	// ErrInvalidScene means the layout has a shape no transition supports.
	ErrInvalidScene = errors.New("invalid scene")
	// ErrMissingElement means a layout item references an unknown element.
	ErrMissingElement = errors.New("element not found in element table")
	// ErrDuplicateElement means two layout items reference the same element.
	ErrDuplicateElement = errors.New("element referenced more than once")
	// ErrUnknownKind means a layout or element kind is not supported.
	ErrUnknownKind = errors.New("unknown kind")
	// ErrItemNotFound means a row or tab key does not exist.
	ErrItemNotFound = errors.New("row or tab not found")
)
