package parser

import (
	"strconv"
	"testing"
)

func TestStringIntern(t *testing.T) {
	si := NewStringIntern()

	s1 := si.Intern("ActivityManager")
	s2 := si.Intern("ActivityManager")
	if s1 != s2 {
		t.Error("Expected equal interned strings")
	}

	si.Intern("main")
	if len(si.pool) != 2 {
		t.Errorf("Expected pool size 2, got %d", len(si.pool))
	}
}

func TestStringInternLimit(t *testing.T) {
	si := NewStringIntern()
	for i := 0; i < MaxInternPoolSize; i++ {
		k := strconv.Itoa(i)
		si.pool[k] = k
	}

	s := si.Intern("overflow")
	if s != "overflow" {
		t.Errorf("Expected string returned unchanged, got %q", s)
	}
	if len(si.pool) != MaxInternPoolSize {
		t.Errorf("Expected pool to stay at %d, got %d", MaxInternPoolSize, len(si.pool))
	}
}
