package ssa

import "strconv"

// namePrefix starts with '_', which the lexer never accepts at the start of
// an identifier, so generated names cannot clash with source names.
const namePrefix = "_ssa_"

// Names issues fresh temporary names. It is a value: conversion takes one
// in and hands the advanced one back, and every function starts from the
// zero value.
type Names struct {
	next uint32
}

// Fresh returns a new name and the advanced generator.
func (n Names) Fresh() (string, Names) {
	name := namePrefix + strconv.FormatUint(uint64(n.next), 10)
	n.next++
	return name, n
}

// Issued reports how many names were handed out.
func (n Names) Issued() int {
	return int(n.next)
}

// IsGenerated reports whether name was produced by Fresh.
func IsGenerated(name string) bool {
	return len(name) > len(namePrefix) && name[:len(namePrefix)] == namePrefix
}
