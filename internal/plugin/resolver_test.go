package plugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRegistry implements Registry for testing
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) DescriptorFor(component string) (*Descriptor, error) {
	args := m.Called(component)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Descriptor), args.Error(1)
}

func (m *MockRegistry) RegisteredIDs() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolver_Resolve(t *testing.T) {
	const component = "extra-icons-core"

	tests := []struct {
		name  string
		setup func(m *MockRegistry)
		want  Type
		scan  bool
	}{
		{
			name: "direct lookup finds subscription",
			setup: func(m *MockRegistry) {
				m.On("DescriptorFor", component).Return(&Descriptor{ID: Subscription.PluginID}, nil)
			},
			want: Subscription,
		},
		{
			name: "direct lookup finds free edition",
			setup: func(m *MockRegistry) {
				m.On("DescriptorFor", component).Return(&Descriptor{ID: Free.PluginID}, nil)
			},
			want: Free,
		},
		{
			name: "direct lookup finds unknown plugin",
			setup: func(m *MockRegistry) {
				m.On("DescriptorFor", component).Return(&Descriptor{ID: "com.example.other"}, nil)
			},
			want: NotFound,
		},
		{
			name: "direct lookup misses and scan matches a findable type",
			setup: func(m *MockRegistry) {
				m.On("DescriptorFor", component).Return(nil, nil)
				m.On("RegisteredIDs").Return([]string{"com.intellij.java", Lifetime.PluginID}, nil)
			},
			want: Lifetime,
			scan: true,
		},
		{
			name: "scan honours FindableTypes order",
			setup: func(m *MockRegistry) {
				m.On("DescriptorFor", component).Return(nil, nil)
				m.On("RegisteredIDs").Return([]string{Free.PluginID, Subscription.PluginID}, nil)
			},
			want: Subscription,
			scan: true,
		},
		{
			name: "direct lookup error falls back to scan",
			setup: func(m *MockRegistry) {
				m.On("DescriptorFor", component).Return(nil, errors.New("host not ready"))
				m.On("RegisteredIDs").Return([]string{Free.PluginID}, nil)
			},
			want: Free,
			scan: true,
		},
		{
			name: "nothing matches",
			setup: func(m *MockRegistry) {
				m.On("DescriptorFor", component).Return(nil, nil)
				m.On("RegisteredIDs").Return([]string{"com.intellij.java"}, nil)
			},
			want: NotFound,
			scan: true,
		},
		{
			name: "scan error yields NotFound",
			setup: func(m *MockRegistry) {
				m.On("DescriptorFor", component).Return(nil, nil)
				m.On("RegisteredIDs").Return(nil, errors.New("boom"))
			},
			want: NotFound,
			scan: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &MockRegistry{}
			tt.setup(registry)

			got := NewResolver(registry, component, discardLogger()).Resolve(context.Background())

			assert.Equal(t, tt.want, got)
			registry.AssertExpectations(t)
			if !tt.scan {
				registry.AssertNotCalled(t, "RegisteredIDs")
			}
		})
	}
}

func TestResolver_Idempotent(t *testing.T) {
	registry := &MockRegistry{}
	registry.On("DescriptorFor", "core").Return(nil, nil)
	registry.On("RegisteredIDs").Return([]string{Subscription.PluginID}, nil)

	r := NewResolver(registry, "core", discardLogger())
	first := r.Resolve(context.Background())
	second := r.Resolve(context.Background())
	assert.Equal(t, first, second)
}

func TestTypes(t *testing.T) {
	assert.True(t, NotFound.IsNotFound())
	assert.False(t, NotFound.RequiresLicense)
	assert.False(t, Free.RequiresLicense)
	assert.True(t, Subscription.RequiresLicense)
	assert.True(t, Lifetime.RequiresLicense)
	assert.NotContains(t, FindableTypes, NotFound)

	for _, ft := range FindableTypes {
		assert.NotEmpty(t, ft.PluginID)
		if ft.RequiresLicense {
			assert.NotEmpty(t, ft.ProductCode, ft.Name)
		}
	}

	assert.Equal(t, "NOT_FOUND", NotFound.String())
	assert.Equal(t, "FREE(lermitage.extra.icons.free)", Free.String())
}
