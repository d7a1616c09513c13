package storage

import (
	"context"

	"github.com/alphadose/haxmap"
	"github.com/darkjune/eclipse/pkg/naming"
)

// Memory keeps values in a concurrent in-process map.
type Memory struct {
	values *haxmap.Map[string, string]
}

func NewMemory() *Memory {
	return &Memory{values: haxmap.New[string, string]()}
}

func (m *Memory) Load(_ context.Context, key naming.FullName) (string, bool, error) {
	raw, ok := m.values.Get(key.String())
	return raw, ok, nil
}

func (m *Memory) Save(_ context.Context, key naming.FullName, raw string) error {
	m.values.Set(key.String(), raw)
	return nil
}

// Len returns the number of stored values.
func (m *Memory) Len() int {
	return int(m.values.Len())
}
