package capture

import (
	"errors"
	"testing"
)

type fakeContext struct {
	devices []DeviceInfo
	err     error
}

func (f *fakeContext) Devices() ([]DeviceInfo, error) {
	return f.devices, f.err
}

func (f *fakeContext) NewCapture(device *DeviceInfo, config Config) (Device, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeContext) Close() {}

func TestFindDevicePrefersExactID(t *testing.T) {
	ctx := &fakeContext{devices: []DeviceInfo{
		{ID: "usb-1", Name: "Scarlett 2i2 USB"},
		{ID: "usb-2", Name: "usb-1 lookalike"},
	}}

	d, err := FindDevice(ctx, "usb-1")
	if err != nil {
		t.Fatalf("FindDevice failed: %v", err)
	}
	if d.Name != "Scarlett 2i2 USB" {
		t.Errorf("expected ID match to win, got %q", d.Name)
	}
}

func TestFindDeviceMatchesNameSubstring(t *testing.T) {
	ctx := &fakeContext{devices: []DeviceInfo{
		{ID: "a", Name: "Built-in Microphone"},
		{ID: "b", Name: "Scarlett 2i2 USB"},
	}}

	d, err := FindDevice(ctx, "scarlett")
	if err != nil {
		t.Fatalf("FindDevice failed: %v", err)
	}
	if d.ID != "b" {
		t.Errorf("expected device b, got %q", d.ID)
	}
}

func TestFindDeviceNoMatch(t *testing.T) {
	ctx := &fakeContext{devices: []DeviceInfo{{ID: "a", Name: "Built-in"}}}
	if _, err := FindDevice(ctx, "umc404"); err == nil {
		t.Error("expected error for unmatched query")
	}
}

func TestClampChannels(t *testing.T) {
	cases := []struct {
		in, want uint32
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{5, 2},
	}
	for _, tc := range cases {
		got := clampChannels(Config{SampleRate: 48000, Channels: tc.in}).Channels
		if got != tc.want {
			t.Errorf("channels %d: expected %d, got %d", tc.in, tc.want, got)
		}
	}
}
