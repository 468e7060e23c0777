// Package mocks provides test doubles for the geocode client.
package mocks

import (
	"context"

	geocode "github.com/gradient-spp/noisemap/pkg/geocode"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Geocode provides a mock function with given fields: ctx, address, opts
func (_m *MockClient) Geocode(ctx context.Context, address string, opts geocode.Options) (*geocode.Result, error) {
	ret := _m.Called(ctx, address, opts)

	if len(ret) == 0 {
		panic("no return value specified for Geocode")
	}

	var r0 *geocode.Result
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, geocode.Options) (*geocode.Result, error)); ok {
		return rf(ctx, address, opts)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, geocode.Options) *geocode.Result); ok {
		r0 = rf(ctx, address, opts)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*geocode.Result)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, geocode.Options) error); ok {
		r1 = rf(ctx, address, opts)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ResolveCityID provides a mock function with given fields: ctx, cityName
func (_m *MockClient) ResolveCityID(ctx context.Context, cityName string) (string, error) {
	ret := _m.Called(ctx, cityName)

	if len(ret) == 0 {
		panic("no return value specified for ResolveCityID")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (string, error)); ok {
		return rf(ctx, cityName)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) string); ok {
		r0 = rf(ctx, cityName)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, cityName)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Close provides a mock function with no fields
func (_m *MockClient) Close() {
	_m.Called()
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
