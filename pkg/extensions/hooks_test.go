package extensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryFiresInOrder(t *testing.T) {
	r := NewRegistry()

	var got []string
	r.Register(HookSaveSucceeded, func(data interface{}) {
		got = append(got, "first:"+data.(string))
	})
	r.Register(HookSaveSucceeded, func(data interface{}) {
		got = append(got, "second:"+data.(string))
	})

	r.Fire(HookSaveSucceeded, "snap")
	assert.Equal(t, []string{"first:snap", "second:snap"}, got)
}

func TestRegistryPointsAreIndependent(t *testing.T) {
	r := NewRegistry()

	var fired int
	r.Register(HookSaveFailed, func(interface{}) { fired++ })

	r.Fire(HookSaveSucceeded, nil)
	assert.Zero(t, fired)
	r.Fire(HookSaveFailed, nil)
	assert.Equal(t, 1, fired)
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()

	var fired int
	r.Register(HookStatusChanged, func(interface{}) { fired++ })
	r.Clear(HookStatusChanged)

	r.Fire(HookStatusChanged, nil)
	assert.Zero(t, fired)
}

func TestNilRegistryFireIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.Fire(HookSaveStarted, nil)
	})
}
