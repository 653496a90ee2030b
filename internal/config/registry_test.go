package config

import (
	"errors"
	"testing"

	"github.com/danif1973/tour-guide-mobile/pkg/provider/geosource"
	geomock "github.com/danif1973/tour-guide-mobile/pkg/provider/geosource/mock"
	"github.com/danif1973/tour-guide-mobile/pkg/provider/summarizer"
	summarizermock "github.com/danif1973/tour-guide-mobile/pkg/provider/summarizer/mock"
)

func TestRegistry_CreateGeo(t *testing.T) {
	r := NewRegistry()
	r.RegisterGeo("mock", func(ProviderEntry) (geosource.Provider, error) {
		return &geomock.Provider{}, nil
	})

	p, err := r.CreateGeo(ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateGeo: %v", err)
	}
	if p == nil {
		t.Fatal("CreateGeo returned nil provider")
	}
}

func TestRegistry_CreateSummarizer(t *testing.T) {
	r := NewRegistry()
	r.RegisterSummarizer("mock", func(ProviderEntry) (summarizer.Provider, error) {
		return &summarizermock.Provider{}, nil
	})

	p, err := r.CreateSummarizer(ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("CreateSummarizer: %v", err)
	}
	if p == nil {
		t.Fatal("CreateSummarizer returned nil provider")
	}
}

func TestRegistry_UnknownName(t *testing.T) {
	r := NewRegistry()

	if _, err := r.CreateGeo(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("CreateGeo err = %v, want ErrProviderNotRegistered", err)
	}
	if _, err := r.CreateSummarizer(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("CreateSummarizer err = %v, want ErrProviderNotRegistered", err)
	}
}

func TestRegistry_FactoryOverwrite(t *testing.T) {
	r := NewRegistry()
	r.RegisterGeo("mock", func(ProviderEntry) (geosource.Provider, error) {
		return nil, errors.New("old factory")
	})
	r.RegisterGeo("mock", func(ProviderEntry) (geosource.Provider, error) {
		return &geomock.Provider{}, nil
	})

	if _, err := r.CreateGeo(ProviderEntry{Name: "mock"}); err != nil {
		t.Errorf("CreateGeo after overwrite: %v", err)
	}
}
