package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gv/backend/recording"
	"github.com/gogpu/gv/gpucore"
)

func withRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := factories
	factories = make(map[string]Factory)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})
}

func recordingFactory(int, int) (gpucore.Backend, error) { return recording.New(), nil }

func failing(int, int) (gpucore.Backend, error) { return nil, errors.New("no adapter") }

func TestRegistry(t *testing.T) {
	withRegistry(t)

	Register("zeta", recordingFactory)
	Register(Software, recordingFactory)
	Register(WGPU, failing)
	Register("alpha", recordingFactory)

	want := []string{WGPU, Software, "alpha", "zeta"}
	if got := Available(); !slices.Equal(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
	if !IsRegistered("alpha") {
		t.Error("alpha not registered")
	}
	Unregister("alpha")
	if IsRegistered("alpha") {
		t.Error("alpha still registered after Unregister")
	}
}

func TestOpen(t *testing.T) {
	withRegistry(t)
	Register(Software, recordingFactory)
	Register(WGPU, failing)

	if _, err := Open("missing", 1, 1); !errors.Is(err, ErrUnknown) {
		t.Errorf("Open(missing) err = %v, want ErrUnknown", err)
	}
	if _, err := Open(WGPU, 1, 1); err == nil {
		t.Error("Open of a failing factory succeeded")
	}
	b, err := Open(Software, 1, 1)
	if err != nil || b == nil {
		t.Errorf("Open(software) = %v, %v", b, err)
	}
}

func TestDefaultFallsBack(t *testing.T) {
	withRegistry(t)
	Register(WGPU, failing)
	Register(Software, recordingFactory)

	b, err := Default(10, 10)
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if _, ok := b.(*recording.Backend); !ok {
		t.Errorf("Default() = %T, want the software fallback", b)
	}
}

func TestDefaultNothingAvailable(t *testing.T) {
	withRegistry(t)
	Register(WGPU, failing)
	Register("other", failing)

	if _, err := Default(10, 10); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("err = %v, want ErrNotAvailable", err)
	}
}
