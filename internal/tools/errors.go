package tools

import "errors"

var (
	ErrDuplicateTool = errors.New("duplicate tool name")
	ErrToolNotFound  = errors.New("tool not found")
	ErrEmptyToolName = errors.New("empty tool name")
)
