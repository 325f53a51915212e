package service

import (
	"github.com/stretchr/testify/mock"
)

// MockQRCodeService is a mock for service.QRCodeService.
type MockQRCodeService struct {
	mock.Mock
}

// NewMockQRCodeService creates the mock and registers expectation checks with
// the test's cleanup.
func NewMockQRCodeService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockQRCodeService {
	m := &MockQRCodeService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockQRCodeService) EncodeURL(url string) ([]byte, error) {
	args := m.Called(url)
	if png, ok := args.Get(0).([]byte); ok {
		return png, args.Error(1)
	}

	return nil, args.Error(1)
}

// MockQRCodeServiceExpecter offers the EXPECT-style setup used across the
// test suites.
type MockQRCodeServiceExpecter struct {
	mock *mock.Mock
}

func (m *MockQRCodeService) EXPECT() *MockQRCodeServiceExpecter {
	return &MockQRCodeServiceExpecter{mock: &m.Mock}
}

func (e *MockQRCodeServiceExpecter) EncodeURL(url any) *mock.Call {
	return e.mock.On("EncodeURL", url)
}
