//go:build tools

// Package tools tracks code generator versions in go.mod.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
