package batch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/pokerag/internal/domain"
)

func TestNewOK(t *testing.T) {
	r := NewOK("doc-1")
	if r.ID() != "doc-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError("doc-2", err)
	if r.ID() != "doc-2" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestNewError_ProviderFailureExcludes(t *testing.T) {
	for _, sentinel := range []error{domain.ErrProviderUnavailable, domain.ErrProviderTimeout} {
		r := NewError("doc-3", fmt.Errorf("embed: %w", sentinel))
		if r.Status() != StatusExcluded {
			t.Errorf("%v: Status() = %q, want %q", sentinel, r.Status(), StatusExcluded)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Result{
		NewOK("a"),
		NewOK("b"),
		NewError("c", domain.ErrProviderUnavailable),
		NewError("d", errors.New("bad record")),
	})
	if s.OK != 2 || s.Excluded != 1 || s.Failed != 1 {
		t.Errorf("Summarize = %+v", s)
	}
}
