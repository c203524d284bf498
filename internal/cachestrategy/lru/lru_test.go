package lru

import "testing"

func TestStrategy_Evicts(t *testing.T) {
	s, err := New[string, int](2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.Add("a", 1)
	s.Add("b", 2)
	s.Get("a")
	if evicted := s.Add("c", 3); !evicted {
		t.Error("Add() past capacity should evict")
	}
	if _, ok := s.Get("b"); ok {
		t.Error("least recently used entry should be gone")
	}
	if v, ok := s.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if !s.Remove("a") || s.Len() != 1 {
		t.Errorf("Remove() left Len() = %d", s.Len())
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	if _, err := New[string, int](0); err == nil {
		t.Error("New(0) should fail")
	}
}
