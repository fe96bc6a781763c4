package status

import (
	"testing"

	"go_fleet/internal/model"
	"go_fleet/internal/playerclient"
)

func TestDetectDeviceType(t *testing.T) {
	cases := []struct {
		model string
		want  string
	}{
		{"Raspberry Pi 5 Model B Rev 1.0", "pi5"},
		{"Raspberry Pi 4 Model B Rev 1.4", "pi4"},
		{"pi5", "pi5"},
		{"Generic x86_64", "unknown"},
		{"", "unknown"},
	}
	for _, c := range cases {
		if got := detectDeviceType(c.model); string(got) != c.want {
			t.Errorf("detectDeviceType(%q): expected %q, got %q", c.model, c.want, got)
		}
	}
}

func TestFailureUpdate_OfflineAtThreshold(t *testing.T) {
	updates := failureUpdate(1, 2)
	if updates["status_failures"] != 1 {
		t.Errorf("Expected 1 failure recorded, got %v", updates["status_failures"])
	}
	if _, ok := updates["is_online"]; ok {
		t.Error("Expected player to stay online below the threshold")
	}

	updates = failureUpdate(2, 2)
	if online, ok := updates["is_online"]; !ok || online != false {
		t.Errorf("Expected offline at threshold, got %v", updates)
	}

	updates = failureUpdate(5, 2)
	if online, ok := updates["is_online"]; !ok || online != false {
		t.Errorf("Expected offline past threshold, got %v", updates)
	}
}

func TestSuccessUpdate_ResetsFailureStreak(t *testing.T) {
	player := &model.Player{StatusFailures: 2, MacAddress: "aa:bb:cc:dd:ee:ff"}
	info := &playerclient.Info{
		DeviceModel: "Raspberry Pi 5 Model B Rev 1.0",
		MacAddress:  "11:22:33:44:55:66",
	}

	updates := successUpdate(player, info, []byte(`{}`))
	if updates["status_failures"] != 0 {
		t.Errorf("Expected failure counter reset, got %v", updates["status_failures"])
	}
	if updates["is_online"] != true {
		t.Errorf("Expected player online, got %v", updates["is_online"])
	}
	if updates["device_type"] != model.DeviceTypePi5 {
		t.Errorf("Expected pi5 device type, got %v", updates["device_type"])
	}
	if updates["mac_address"] != "11:22:33:44:55:66" {
		t.Errorf("Expected mac address refresh, got %v", updates["mac_address"])
	}
}

func TestSuccessUpdate_SkipsUnchangedFields(t *testing.T) {
	player := &model.Player{MacAddress: "aa:bb:cc:dd:ee:ff"}
	info := &playerclient.Info{
		DeviceModel: "Generic x86_64",
		MacAddress:  "aa:bb:cc:dd:ee:ff",
	}

	updates := successUpdate(player, info, []byte(`{}`))
	if _, ok := updates["device_type"]; ok {
		t.Error("Expected unknown device model to leave device_type alone")
	}
	if _, ok := updates["mac_address"]; ok {
		t.Error("Expected unchanged mac address to be skipped")
	}
}
